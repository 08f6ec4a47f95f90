// AngelaMos | 2026
// commands.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/coursehub/internal/auth"
	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/config"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/order"
	"github.com/carterperez-dev/coursehub/internal/sweep"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := core.NewDatabase(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // process exit

		applied, err := core.Migrate(cmd.Context(), db.DB, logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
		return nil
	},
}

var sweepLocked bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Deactivate expired orders and enrollments once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		db, err := core.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // process exit

		comboRepo := combo.NewRepository(db.DB)
		enrollments := enrollment.NewService(enrollment.NewRepository(db.DB), comboRepo, db, logger)
		orders := order.NewService(cfg.Access, order.Deps{
			Repo:        order.NewRepository(db.DB),
			Courses:     course.NewRepository(db.DB),
			Combos:      comboRepo,
			Enrollments: enrollments,
			Tx:          db,
			Logger:      logger,
		})

		var locker sweep.Locker
		if sweepLocked {
			rdb, rErr := core.NewRedis(ctx, cfg.Redis)
			if rErr != nil {
				return rErr
			}
			defer rdb.Close() //nolint:errcheck // process exit
			locker = rdb
		}

		res, ran, err := sweep.NewScheduler(cfg.Sweep, orders, locker, nil, logger).RunOnce(ctx)
		if err != nil {
			return err
		}
		if !ran {
			fmt.Fprintln(cmd.OutOrStdout(), "sweep lock held by another process, nothing done")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "expired %d order(s), %d enrollment(s)\n",
			res.OrdersExpired, res.EnrollmentsExpired)
		return nil
	},
}

var (
	keygenPrivate string
	keygenPublic  string
	keygenForce   bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ES256 key pair for signing access tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !keygenForce {
			if _, err := os.Stat(keygenPrivate); err == nil {
				return fmt.Errorf("%s already exists, pass --force to overwrite", keygenPrivate)
			}
		}

		if err := auth.GenerateKeyPair(keygenPrivate, keygenPublic); err != nil {
			return err
		}

		m, err := auth.NewJWTManager(config.JWTConfig{PrivateKeyPath: keygenPrivate})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s (kid %s)\n", keygenPrivate, keygenPublic, m.KeyID())
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepLocked, "lock", true, "hold the shared Redis sweep lock while running")

	keygenCmd.Flags().StringVar(&keygenPrivate, "private", "keys/private.pem", "private key output path")
	keygenCmd.Flags().StringVar(&keygenPublic, "public", "keys/public.pem", "public key output path")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "overwrite existing keys")
}
