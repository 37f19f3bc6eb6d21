package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	apikeydomain "github.com/frontdesklabs/frontdesk/internal/apikey/domain"
	auditdomain "github.com/frontdesklabs/frontdesk/internal/audit/domain"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	companydomain "github.com/frontdesklabs/frontdesk/internal/company/domain"
	guestdomain "github.com/frontdesklabs/frontdesk/internal/guest/domain"
	nightauditdomain "github.com/frontdesklabs/frontdesk/internal/nightaudit/domain"
	paymentdomain "github.com/frontdesklabs/frontdesk/internal/payment/domain"
	roomdomain "github.com/frontdesklabs/frontdesk/internal/room/domain"
	settingsdomain "github.com/frontdesklabs/frontdesk/internal/settings/domain"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies all embedded migrations against Postgres and
// records the resulting schema state. It must be run explicitly by the
// migrator entrypoint, never on serve.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	unlock, err := acquireAdvisoryLock(ctx, db)
	if err != nil {
		return err
	}
	defer func() {
		_ = unlock(context.Background())
	}()

	latestVersion, err := LatestMigrationVersion()
	if err != nil {
		return err
	}
	checksum, err := MigrationsChecksum()
	if err != nil {
		return err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if _, err := ensureNotDirty(migrator); err != nil {
		return err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	currentVersion, err := ensureNotDirty(migrator)
	if err != nil {
		return err
	}
	if currentVersion != latestVersion {
		return fmt.Errorf("schema version mismatch after migrate: got %d want %d", currentVersion, latestVersion)
	}

	return activateSchemaState(ctx, db, fmt.Sprintf("%d", latestVersion), checksum)
}

func ensureNotDirty(migrator *migrate.Migrate) (uint, error) {
	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database migrations are dirty at version %d", version)
	}
	return version, nil
}

// AutoMigrate builds the schema through gorm for sqlite dev and test
// databases, where the SQL migrations (written for Postgres) don't
// apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&guestdomain.Guest{},
		&roomdomain.Room{},
		&companydomain.Company{},
		&bookingdomain.Booking{},
		&paymentdomain.Payment{},
		&settingsdomain.SystemSetting{},
		&companydomain.LedgerEntry{},
		&nightauditdomain.Run{},
		&auditdomain.Event{},
		&apikeydomain.ApiKey{},
	)
}
