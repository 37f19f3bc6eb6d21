package authorization

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

// Objects and actions guarded on the HTTP surface.
const (
	ObjSettings      = "settings"
	ObjBookings      = "bookings"
	ObjPayments      = "payments"
	ObjCheckout      = "checkout"
	ObjNightAudit    = "night_audit"
	ObjCompanyLedger = "company_ledger"
	ObjAuditTrail    = "audit_trail"
	ObjApiKeys       = "api_keys"

	ActRead    = "read"
	ActWrite   = "write"
	ActUpdate  = "update"
	ActExecute = "execute"
	ActSettle  = "settle"
	ActManage  = "manage"
)

// Service wraps the enforcer so handlers ask one question: may this
// role do this action on this object.
type Service struct {
	enforcer *casbin.Enforcer
	log      *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) (*Service, error) {
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", "casbin_rules")
	if err != nil {
		return nil, fmt.Errorf("casbin adapter: %w", err)
	}

	model, err := casbinmodel.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(model, adapter)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, fmt.Errorf("seed policies: %w", err)
	}

	return &Service{enforcer: enforcer, log: log}, nil
}

func (s *Service) Allowed(role, object, action string) bool {
	ok, err := s.enforcer.Enforce(role, object, action)
	if err != nil {
		s.log.Warn("authorization check failed",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
			zap.Error(err))
		return false
	}
	return ok
}

// seedPolicies installs the default role grants. AddPolicy is a no-op
// for policies already persisted by the adapter.
func seedPolicies(e *casbin.Enforcer) error {
	// Managers do everything the front desk does; admins do everything
	// managers and auditors do.
	groupings := [][]string{
		{"manager", "front_desk"},
		{"admin", "manager"},
		{"admin", "auditor"},
	}
	policies := [][]string{
		{"front_desk", ObjSettings, ActRead},
		{"front_desk", ObjBookings, ActRead},
		{"front_desk", ObjBookings, ActWrite},
		{"front_desk", ObjPayments, ActRead},
		{"front_desk", ObjPayments, ActWrite},
		{"front_desk", ObjCheckout, ActExecute},
		{"manager", ObjSettings, ActUpdate},
		{"manager", ObjNightAudit, ActRead},
		{"manager", ObjCompanyLedger, ActRead},
		{"manager", ObjCompanyLedger, ActSettle},
		{"auditor", ObjSettings, ActRead},
		{"auditor", ObjBookings, ActRead},
		{"auditor", ObjNightAudit, ActRead},
		{"auditor", ObjNightAudit, ActExecute},
		{"auditor", ObjAuditTrail, ActRead},
		{"admin", ObjApiKeys, ActManage},
	}

	for _, g := range groupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}
