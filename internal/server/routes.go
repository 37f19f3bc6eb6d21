package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frontdesklabs/frontdesk/internal/authorization"
)

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/readyz", s.Readyz)

	// The gorm prometheus plugin registers against the default
	// registry, so /metrics gathers both.
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		prometheus.Gatherers{s.metrics.Registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)))

	api := engine.Group("/api", s.APIKeyRequired())

	api.GET("/settings",
		s.RequirePermission(authorization.ObjSettings, authorization.ActRead), s.ListSettings)
	api.PUT("/settings/:key",
		s.RequirePermission(authorization.ObjSettings, authorization.ActUpdate), s.UpdateSetting)

	api.POST("/bookings",
		s.RequirePermission(authorization.ObjBookings, authorization.ActWrite), s.CreateBooking)
	api.GET("/bookings/:id",
		s.RequirePermission(authorization.ObjBookings, authorization.ActRead), s.GetBooking)
	api.GET("/bookings/:id/posted",
		s.RequirePermission(authorization.ObjBookings, authorization.ActRead), s.GetBookingPosted)
	api.POST("/bookings/sweep",
		s.RequirePermission(authorization.ObjBookings, authorization.ActWrite), s.SweepBookings)
	api.GET("/bookings/:id/payments",
		s.RequirePermission(authorization.ObjPayments, authorization.ActRead), s.ListBookingPayments)

	api.POST("/payments",
		s.RequirePermission(authorization.ObjPayments, authorization.ActWrite), s.RecordPayment)
	api.POST("/payments/refund-deposit",
		s.RequirePermission(authorization.ObjPayments, authorization.ActWrite), s.RefundDeposit)

	checkout := api.Group("/checkout/:booking_id",
		s.RequirePermission(authorization.ObjCheckout, authorization.ActExecute))
	checkout.GET("/preview", s.CheckoutPreview)
	checkout.POST("/advance", s.CheckoutAdvance)
	checkout.POST("/late-fee", s.CheckoutLateFee)
	checkout.POST("/back", s.CheckoutBack)
	checkout.POST("/complete", s.CheckoutComplete)
	checkout.DELETE("", s.CheckoutAbandon)

	api.GET("/night-audit/preview",
		s.RequirePermission(authorization.ObjNightAudit, authorization.ActRead), s.NightAuditPreview)
	api.POST("/night-audit/run",
		s.RequirePermission(authorization.ObjNightAudit, authorization.ActExecute), s.NightAuditRun)
	api.GET("/night-audit",
		s.RequirePermission(authorization.ObjNightAudit, authorization.ActRead), s.ListNightAuditRuns)
	api.GET("/night-audit/:id",
		s.RequirePermission(authorization.ObjNightAudit, authorization.ActRead), s.GetNightAuditRun)
	api.GET("/night-audit/:id/details",
		s.RequirePermission(authorization.ObjNightAudit, authorization.ActRead), s.GetNightAuditDetails)

	api.GET("/companies",
		s.RequirePermission(authorization.ObjCompanyLedger, authorization.ActRead), s.ListCompanies)
	api.POST("/companies",
		s.RequirePermission(authorization.ObjCompanyLedger, authorization.ActSettle), s.CreateCompany)
	api.GET("/company-ledgers",
		s.RequirePermission(authorization.ObjCompanyLedger, authorization.ActRead), s.ListCompanyLedgers)
	api.POST("/company-ledgers/:id/settle",
		s.RequirePermission(authorization.ObjCompanyLedger, authorization.ActSettle), s.SettleCompanyLedger)

	api.GET("/audit-events/export",
		s.RequirePermission(authorization.ObjAuditTrail, authorization.ActRead), s.ExportAuditEvents)

	apiKeys := api.Group("/api-keys",
		s.RequirePermission(authorization.ObjApiKeys, authorization.ActManage))
	apiKeys.POST("", s.CreateApiKey)
	apiKeys.GET("", s.ListApiKeys)
	apiKeys.DELETE("/:id", s.RevokeApiKey)
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports ready once the database answers.
func (s *Server) Readyz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
