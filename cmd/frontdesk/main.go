package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/frontdesklabs/frontdesk/internal/apikey"
	"github.com/frontdesklabs/frontdesk/internal/audit"
	"github.com/frontdesklabs/frontdesk/internal/authorization"
	"github.com/frontdesklabs/frontdesk/internal/booking"
	bookingdomain "github.com/frontdesklabs/frontdesk/internal/booking/domain"
	"github.com/frontdesklabs/frontdesk/internal/checkout"
	"github.com/frontdesklabs/frontdesk/internal/clock"
	"github.com/frontdesklabs/frontdesk/internal/company"
	"github.com/frontdesklabs/frontdesk/internal/config"
	"github.com/frontdesklabs/frontdesk/internal/db"
	"github.com/frontdesklabs/frontdesk/internal/guest"
	"github.com/frontdesklabs/frontdesk/internal/migration"
	"github.com/frontdesklabs/frontdesk/internal/nightaudit"
	"github.com/frontdesklabs/frontdesk/internal/observability"
	"github.com/frontdesklabs/frontdesk/internal/payment"
	"github.com/frontdesklabs/frontdesk/internal/redis"
	"github.com/frontdesklabs/frontdesk/internal/room"
	"github.com/frontdesklabs/frontdesk/internal/seed"
	"github.com/frontdesklabs/frontdesk/internal/server"
	"github.com/frontdesklabs/frontdesk/internal/settings"
	"github.com/frontdesklabs/frontdesk/internal/tariff"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "frontdesk",
		Short:   "Hotel front desk server",
		Version: readVersionFromEnv(),
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newSweepCmd(), newSeedCmd(), newAllCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the front desk API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Apply the auto check-in and late-checkout sweeps once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep()
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install settings defaults, sample rooms and a bootstrap api key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run migrations and defaults, then start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(); err != nil {
				return err
			}
			runServe()
			return nil
		},
	}
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		baseModules(),
		redis.Module,
		fx.Invoke(ensureDefaults),
		server.Module,
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func runSweep() error {
	var result bookingdomain.SweepResult
	app := fx.New(
		baseModules(),
		fx.Invoke(func(bookings bookingdomain.Service, log *zap.Logger) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			r, err := bookings.Sweep(ctx)
			if err != nil {
				return err
			}
			result = r
			log.Info("sweep finished",
				zap.Int64("checked_in", r.CheckedIn),
				zap.Int64("marked_late", r.MarkedLate))
			return nil
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	_ = app.Stop(context.Background())
	fmt.Printf("checked in %d, flagged %d late checkouts\n", result.CheckedIn, result.MarkedLate)
	return nil
}

func runSeed() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		fx.Invoke(ensureDefaults),
		fx.Invoke(func(conn *gorm.DB) error {
			if err := seed.SampleRooms(conn); err != nil {
				return err
			}
			if err := seed.SampleGuests(conn); err != nil {
				return err
			}
			return seed.SampleCompany(conn)
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func baseModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		authorization.Module,
		apikey.Module,
		audit.Module,
		settings.Module,
		guest.Module,
		room.Module,
		tariff.Module,
		booking.Module,
		payment.Module,
		checkout.Module,
		company.Module,
		nightaudit.Module,
	)
}

func ensureDefaults(conn *gorm.DB, log *zap.Logger) error {
	return seed.EnsureDefaults(conn, log)
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
