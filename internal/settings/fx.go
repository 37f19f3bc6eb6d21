package settings

import (
	"github.com/frontdesklabs/frontdesk/internal/settings/repository"
	"github.com/frontdesklabs/frontdesk/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
