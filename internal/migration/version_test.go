package migration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatestMigrationVersion(t *testing.T) {
	version, err := LatestMigrationVersion()
	require.NoError(t, err)
	require.EqualValues(t, 2, version)
}

func TestMigrationsChecksumIsStable(t *testing.T) {
	first, err := MigrationsChecksum()
	require.NoError(t, err)
	require.Len(t, first, 64)

	second, err := MigrationsChecksum()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestParseMigrationVersion(t *testing.T) {
	version, ok := parseMigrationVersion("0002_night_audit.up.sql")
	require.True(t, ok)
	require.EqualValues(t, 2, version)

	_, ok = parseMigrationVersion("not_a_migration.sql")
	require.False(t, ok)
}
