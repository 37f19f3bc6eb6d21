package company

import (
	"github.com/frontdesklabs/frontdesk/internal/company/repository"
	"github.com/frontdesklabs/frontdesk/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewService),
	fx.Provide(service.NewLedgerPoster),
)
