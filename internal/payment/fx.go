package payment

import (
	"github.com/frontdesklabs/frontdesk/internal/payment/repository"
	"github.com/frontdesklabs/frontdesk/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewLedger),
	fx.Provide(service.NewDepositManager),
)
