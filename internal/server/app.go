// Package server initializes and runs the ledger server. It opens the
// database, applies migrations, wires the services together, schedules
// the periodic settlement jobs and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tauschring/kontor/internal/logging"
	"github.com/tauschring/kontor/internal/server/admin"
	"github.com/tauschring/kontor/internal/server/banking"
	"github.com/tauschring/kontor/internal/server/config"
	"github.com/tauschring/kontor/internal/server/members"
	"github.com/tauschring/kontor/internal/server/repositories/repomanager"
	"github.com/tauschring/kontor/internal/server/settlement"
	"github.com/tauschring/kontor/internal/server/trust"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	BankingService    *banking.Service
	SettlementService *settlement.Service
	AdminService      *admin.Service
	MemberService     *members.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	bank := banking.NewService(db, repos, trust.DefaultPolicy(), logger)

	return &App{
		config:            cfg,
		logger:            logger,
		db:                db,
		BankingService:    bank,
		SettlementService: settlement.NewService(db, repos, bank, cfg, logger),
		AdminService:      admin.NewService(db, repos, bank, logger),
		MemberService:     members.NewService(db, repos, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runPeriodic invokes job every interval until the context is cancelled.
// Job errors are logged and the schedule continues.
func (app *App) runPeriodic(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.logger.Info(ctx, "scheduling settlement job", "job", name, "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job(ctx); err != nil {
				app.logger.Error(ctx, "settlement job failed", "job", name, "error", err.Error())
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runPeriodic(ctx, "membership_fee_sweep", app.config.FeeSweepInterval, func(ctx context.Context) error {
			_, err := app.SettlementService.SweepMembershipFees(ctx)
			return err
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runPeriodic(ctx, "demurrage", app.config.DemurrageInterval, func(ctx context.Context) error {
			_, err := app.SettlementService.RunDemurrage(ctx)
			return err
		})
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err.Error())
	}
	app.logger.Info(ctx, "Shutdown complete")
}
