package nightaudit

import (
	"github.com/frontdesklabs/frontdesk/internal/nightaudit/repository"
	"github.com/frontdesklabs/frontdesk/internal/nightaudit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("nightaudit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
