package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/frontdesklabs/frontdesk/internal/apikey/domain"
	auditdomain "github.com/frontdesklabs/frontdesk/internal/audit/domain"
	"github.com/frontdesklabs/frontdesk/internal/authorization"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	checkoutdomain "github.com/frontdesklabs/frontdesk/internal/checkout/domain"
	companydomain "github.com/frontdesklabs/frontdesk/internal/company/domain"
	"github.com/frontdesklabs/frontdesk/internal/config"
	nightauditdomain "github.com/frontdesklabs/frontdesk/internal/nightaudit/domain"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	paymentdomain "github.com/frontdesklabs/frontdesk/internal/payment/domain"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
)

type Params struct {
	fx.In

	Config  config.Config
	DB      *gorm.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Authz   *authorization.Service

	Settings    settingsdomain.Service
	Bookings    bookingdomain.Service
	Ledger      paymentdomain.Ledger
	Deposits    paymentdomain.DepositManager
	Checkout    checkoutdomain.Reconciler
	NightAudit  nightauditdomain.Service
	Company     companydomain.Service
	ApiKeys     apikeydomain.Service
	AuditExport auditdomain.ExportService
}

type Server struct {
	cfg     config.Config
	db      *gorm.DB
	log     *zap.Logger
	metrics *observability.Metrics
	authz   *authorization.Service

	settings    settingsdomain.Service
	bookings    bookingdomain.Service
	ledger      paymentdomain.Ledger
	deposits    paymentdomain.DepositManager
	checkout    checkoutdomain.Reconciler
	nightAudit  nightauditdomain.Service
	company     companydomain.Service
	apiKeys     apikeydomain.Service
	auditExport auditdomain.ExportService
}

func New(p Params) *Server {
	return &Server{
		cfg:         p.Config,
		db:          p.DB,
		log:         p.Logger,
		metrics:     p.Metrics,
		authz:       p.Authz,
		settings:    p.Settings,
		bookings:    p.Bookings,
		ledger:      p.Ledger,
		deposits:    p.Deposits,
		checkout:    p.Checkout,
		nightAudit:  p.NightAudit,
		company:     p.Company,
		apiKeys:     p.ApiKeys,
		auditExport: p.AuditExport,
	}
}

var Module = fx.Module("server",
	fx.Provide(New),
)

// RunHTTP starts the gin server under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestMetrics())
	s.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server listening", zap.String("addr", s.cfg.Server.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
