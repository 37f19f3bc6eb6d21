package guest

import (
	"github.com/frontdesklabs/frontdesk/internal/guest/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("guest",
	fx.Provide(repository.Provide),
)
