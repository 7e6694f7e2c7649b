package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/auth"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/database"
	"github.com/Kyz7/formbuilder/internal/mail"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/notify"
	"github.com/Kyz7/formbuilder/internal/revocation"
	"github.com/Kyz7/formbuilder/internal/role"
	"github.com/Kyz7/formbuilder/internal/server"
	"github.com/Kyz7/formbuilder/internal/survey"
	"github.com/Kyz7/formbuilder/internal/token"
	"github.com/Kyz7/formbuilder/internal/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrationsDir string

func main() {
	root := &cobra.Command{
		Use:   "formbuilder",
		Short: "Survey form builder API",
	}
	root.PersistentFlags().StringVar(&migrationsDir, "migrations", "migrations", "directory holding the SQL migrations")

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), reapCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB connects with the configured credentials and brings the schema up to date.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	log.Println("✅ Database migrated successfully")
	return db, nil
}

func newRevoker(cfg *config.Config, db *gorm.DB) revocation.Revoker {
	if cfg.RedisAddr == "" {
		log.Println("🔐 Revoked tokens stored in the database")
		return revocation.NewDBRevoker(db)
	}
	client, err := revocation.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("⚠️  Redis unavailable (%v), falling back to the database", err)
		return revocation.NewDBRevoker(db)
	}
	log.Printf("🔐 Revoked tokens stored in redis at %s", cfg.RedisAddr)
	return revocation.NewRedisRevoker(client, "formbuilder:revoked:")
}

// newNotifier returns the notifier the services publish to and a cleanup func.
func newNotifier(ctx context.Context, cfg *config.Config) (notify.Notifier, func(), error) {
	mailer, err := mail.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.NotifyMode == "direct" {
		log.Println("📧 Notifications mailed inline")
		return &notify.Direct{Mailer: mailer, From: cfg.MailFrom}, func() {}, nil
	}

	var bus *notify.PubSub
	if len(cfg.KafkaBrokers) > 0 {
		bus, err = notify.NewKafka(cfg.KafkaBrokers, "formbuilder-mailer")
		if err != nil {
			return nil, nil, err
		}
		log.Printf("📨 Notifications published to kafka topic %s", cfg.NotifyTopic)
	} else {
		bus = notify.NewGoChannel(false)
		log.Println("📨 Notifications dispatched in-process")
	}

	if err := notify.NewDispatcher(bus.Subscriber, cfg.NotifyTopic, mailer, cfg.MailFrom).Start(ctx); err != nil {
		bus.Close()
		return nil, nil, err
	}
	return notify.NewBus(bus.Publisher, cfg.NotifyTopic), bus.Close, nil
}

func linkWindows(cfg *config.Config) map[models.TokenPurpose]time.Duration {
	return map[models.TokenPurpose]time.Duration{
		models.PurposeSetPassword:   cfg.SetPasswordLinkTTL,
		models.PurposeResetPassword: cfg.ResetPasswordLinkTTL,
	}
}

func reap(ctx context.Context, cfg *config.Config, db *gorm.DB, revoker revocation.Revoker) {
	tokens, err := token.NewStore(db).Reap(ctx, linkWindows(cfg))
	if err != nil {
		log.Printf("⚠️  Reaping expired links failed: %v", err)
	} else if tokens > 0 {
		log.Printf("🧹 Cleaned up %d expired links", tokens)
	}

	revoked, err := revoker.Prune(ctx)
	if err != nil {
		log.Printf("⚠️  Pruning revoked tokens failed: %v", err)
	} else if revoked > 0 {
		log.Printf("🧹 Cleaned up %d revoked refresh tokens", revoked)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			if err := utils.ValidateJWTSecret(); err != nil {
				log.Fatal("❌ JWT Configuration Error: ", err)
			}
			log.Println("✅ JWT secret validated")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// ========== DATABASE SETUP ==========
			db, err := openDB(cfg)
			if err != nil {
				log.Fatal("❌ Database setup failed: ", err)
			}
			if err := database.RunMigrations(db, migrationsDir); err != nil {
				log.Printf("⚠️  SQL migrations failed: %v", err)
				log.Println("⚠️  Search features may not work optimally")
			}

			// ========== SEED DEFAULT DATA ==========
			if n, err := survey.SeedDefaultQuestions(ctx, db); err != nil {
				log.Println("⚠️  Failed to seed default questions:", err)
			} else if n > 0 {
				log.Printf("✅ %d default questions seeded", n)
			}

			revoker := newRevoker(cfg, db)
			notifier, closeNotifier, err := newNotifier(ctx, cfg)
			if err != nil {
				log.Fatal("❌ Notification setup failed: ", err)
			}
			defer closeNotifier()

			// ========== BACKGROUND JOBS ==========
			go func() {
				ticker := time.NewTicker(cfg.ReapInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						reap(ctx, cfg, db, revoker)
					}
				}
			}()

			// ========== START SERVER ==========
			app := server.New(server.Deps{
				DB:       db,
				Config:   cfg,
				Revoker:  revoker,
				Notifier: notifier,
				Google:   auth.NewGoogle(cfg),
			})

			go func() {
				<-ctx.Done()
				log.Println("🛑 Shutting down")
				if err := app.Shutdown(); err != nil {
					log.Printf("⚠️  Shutdown: %v", err)
				}
			}()

			log.Printf("🚀 Form builder server starting on %s", cfg.ServerAddr)
			log.Printf("📚 Health check: %s/health", cfg.ServerAddr)
			return app.Listen(cfg.ServerAddr)
		},
	}
}

func migrateCmd() *cobra.Command {
	var rollback string
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or list SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			switch {
			case status:
				applied, err := database.GetAppliedMigrations(db)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					log.Println("No migrations applied")
				}
				for _, m := range applied {
					log.Printf("%s  applied %s", m.Version, m.AppliedAt)
				}
				return nil
			case rollback != "":
				return database.RollbackMigration(db, migrationsDir, rollback)
			}
			return database.RunMigrations(db, migrationsDir)
		},
	}
	cmd.Flags().StringVar(&rollback, "rollback", "", "roll back the named migration, e.g. 001_survey_indexes.sql")
	cmd.Flags().BoolVar(&status, "status", false, "list applied migrations")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the configured admin and the default questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			if _, err := role.SeedAdmin(cmd.Context(), db, cfg); err != nil {
				var appErr *apperror.Error
				if errors.As(err, &appErr) {
					for field, msg := range appErr.Details {
						log.Printf("❌ admin %s: %s", field, msg)
					}
				}
				return err
			}
			n, err := survey.SeedDefaultQuestions(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.Printf("✅ %d default questions seeded", n)
			return nil
		},
	}
}

func reapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Delete expired links and revoked tokens once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			reap(cmd.Context(), cfg, db, newRevoker(cfg, db))
			return nil
		},
	}
}
