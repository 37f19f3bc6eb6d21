package authorization

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	svc, err := New(db, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestRoleGrants(t *testing.T) {
	svc := newTestService(t)

	// Front desk runs checkouts but never the night audit.
	require.True(t, svc.Allowed("front_desk", ObjCheckout, ActExecute))
	require.False(t, svc.Allowed("front_desk", ObjNightAudit, ActExecute))
	require.False(t, svc.Allowed("front_desk", ObjSettings, ActUpdate))

	// Auditors run the audit but don't touch payments.
	require.True(t, svc.Allowed("auditor", ObjNightAudit, ActExecute))
	require.False(t, svc.Allowed("auditor", ObjPayments, ActWrite))

	// Managers inherit front-desk grants.
	require.True(t, svc.Allowed("manager", ObjCheckout, ActExecute))
	require.True(t, svc.Allowed("manager", ObjSettings, ActUpdate))

	// Admins inherit everything.
	require.True(t, svc.Allowed("admin", ObjNightAudit, ActExecute))
	require.True(t, svc.Allowed("admin", ObjCheckout, ActExecute))
	require.True(t, svc.Allowed("admin", ObjApiKeys, ActManage))

	require.False(t, svc.Allowed("unknown_role", ObjBookings, ActRead))
}
