package booking

import (
	"github.com/frontdesklabs/frontdesk/internal/booking/repository"
	"github.com/frontdesklabs/frontdesk/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
