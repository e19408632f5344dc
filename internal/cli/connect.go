package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tauschring/kontor/internal/logging"
	"github.com/tauschring/kontor/internal/server/admin"
	"github.com/tauschring/kontor/internal/server/banking"
	"github.com/tauschring/kontor/internal/server/config"
	"github.com/tauschring/kontor/internal/server/repositories/repomanager"
	"github.com/tauschring/kontor/internal/server/settlement"
	"github.com/tauschring/kontor/internal/server/trust"
)

// env bundles everything a subcommand needs: the open database handle
// and the wired services. Close it when done.
type env struct {
	cfg    *config.Config
	db     *sql.DB
	repos  repomanager.Manager
	logger logging.Logger

	bank       *banking.Service
	settlement *settlement.Service
	admin      *admin.Service
}

func (e *env) Close() error {
	return e.db.Close()
}

// connect opens the database and wires the service graph. It does not
// apply migrations; the migrate command does that explicitly.
func connect(ctx context.Context, opts *RootOptions) (*env, error) {
	cfg := config.LoadConfig()
	if opts.DSN != "" {
		cfg.DatabaseDSN = opts.DSN
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := logging.NewSlogLogger(slog.New(handler))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	repos := repomanager.NewPostgresManager()
	bank := banking.NewService(db, repos, trust.DefaultPolicy(), logger)

	return &env{
		cfg:        cfg,
		db:         db,
		repos:      repos,
		logger:     logger,
		bank:       bank,
		settlement: settlement.NewService(db, repos, bank, cfg, logger),
		admin:      admin.NewService(db, repos, bank, logger),
	}, nil
}

// emit writes v to w as JSON or as text, depending on the format flag.
// The text fallback prints each value with %+v.
func emit(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(w, "%+v\n", v)
	return err
}
