package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/frontdesklabs/frontdesk/internal/apikey/domain"
	"github.com/frontdesklabs/frontdesk/internal/clock"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ApiKey{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		Clock:  clock.Fixed{At: testNow},
		GenID:  node,
		DB:     db,
		Logger: zap.NewNop(),
	})
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "front desk terminal", domain.RoleFrontDesk, nil)
	require.NoError(t, err)
	require.NotEmpty(t, created.Secret)
	require.NotEqual(t, created.Secret, created.Key.KeyHash)

	key, err := svc.Authenticate(ctx, created.Secret)
	require.NoError(t, err)
	require.Equal(t, created.Key.ID, key.ID)
	require.Equal(t, domain.RoleFrontDesk, key.Role)

	_, err = svc.Authenticate(ctx, "fd_not_a_key")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticateRejectsExpiredKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	expired := testNow.Add(-time.Hour)
	created, err := svc.Create(ctx, "old key", domain.RoleAuditor, &expired)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, created.Secret)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRevokeDeactivatesKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "terminal", domain.RoleAdmin, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, created.Key.ID))

	_, err = svc.Authenticate(ctx, created.Secret)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.ErrorIs(t, svc.Revoke(ctx, snowflake.ID(404)), domain.ErrKeyNotFound)
}
