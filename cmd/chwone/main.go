// Command chwone is the CHWOne platform server binary.
//
// Subcommands:
//
//	serve          — HTTP server plus embedded maintenance tasks
//	migrate        — run pending database migrations and exit
//	policy         — validate or print the capability table
//	provision-org  — operator path for creating any org type, including admin
//	member         — add or remove organization members
//	issue-token    — mint a development access token
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	// Embeds the IANA timezone database so time.LoadLocation works inside
	// distroless containers with no /usr/share/zoneinfo.
	_ "time/tzdata"

	// Sets GOMEMLIMIT from the cgroup memory limit.
	_ "github.com/KimMachineGun/automemlimit"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/api"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/config"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/store"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/worker"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chwone",
		Short: "CHWOne — community health worker platform",
		// Silence default error printing; we print it ourselves with slog.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		policyCmd(),
		provisionOrgCmd(),
		memberCmd(),
		issueTokenCmd(),
	)
	return root
}

// ── serve ─────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// An invalid capability table or catalog is fatal before any request is served.
	resolver, err := buildResolver(cfg.AccessPolicyFile, cfg.OpenPolicy(), logger)
	if err != nil {
		return fmt.Errorf("access policy: %w", err)
	}

	db, err := newPool(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	st := store.New(db)

	// Background maintenance. Runs until ctx is cancelled.
	pool := worker.New()
	if err := pool.Register("api_key_prune", cfg.APIKeyPruneInterval, func(ctx context.Context) error {
		n, err := st.PruneAPIKeys(ctx, cfg.APIKeyRetention)
		if n > 0 {
			slog.InfoContext(ctx, "pruned api keys", "count", n)
		}
		return err
	}); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	go pool.Start(ctx) //nolint:contextcheck // ctx is the process-lifetime context

	apiSrv, err := api.NewServer(st, cfg, resolver)
	if err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	// Explicit timeouts against Slowloris.
	srv := &http.Server{ //nolint:exhaustruct // WriteTimeout left to per-handler limits
		Addr:              cfg.ListenAddr,
		Handler:           apiSrv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.ListenAddr, "access_policy", cfg.AccessPolicyMode)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		stop() // release signal notification
	}

	slog.Info("shutting down", "timeout_seconds", cfg.ShutdownTimeoutSeconds)
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// ── migrate ───────────────────────────────────────────────────────────────────

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations and exit",
		RunE:  runMigrate,
	}
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))

	slog.Info("running migrations")

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	// golang-migrate requires a *sql.DB; pgx's stdlib adapter keeps one driver project-wide.
	migrateURL := cfg.DatabaseURL
	if cfg.DatabaseURLMigrate != "" {
		migrateURL = cfg.DatabaseURLMigrate
	}
	connCfg, err := pgx.ParseConfig(migrateURL)
	if err != nil {
		return fmt.Errorf("parse db url: %w", err)
	}
	db := stdlib.OpenDB(*connCfg)
	defer db.Close() //nolint:errcheck

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, _ := m.Version() //nolint:errcheck
	slog.Info("migrations complete", "version", version)
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// buildResolver loads the capability table (the built-in matrix, or the YAML
// file at path) and validates it against the tool catalog.
func buildResolver(path string, open bool, logger *slog.Logger) (*access.Resolver, error) {
	table := access.DefaultTable()
	if path != "" {
		var err error
		if table, err = access.LoadTableFile(path); err != nil {
			return nil, err
		}
	}
	opts := []access.Option{access.WithLogger(logger)}
	if open {
		opts = append(opts, access.WithOpenPolicy())
	}
	return access.NewResolver(table, access.DefaultCatalog(), opts...)
}

// newPool creates and validates a pgxpool: PgBouncer-compatible exec mode,
// statement timeout and pool sizing from config.
//
// Retries up to 10 times with linear backoff to ride out a Postgres that is
// not yet accepting connections at container start.
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DBQueryExecMode == "simple_protocol" {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.Itoa(cfg.DBStatementTimeoutMS)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MaxConnIdleTime = cfg.DBMaxConnIdleTime

	var (
		db      *pgxpool.Pool
		connErr error
	)
	for attempt := 1; attempt <= 10; attempt++ {
		db, connErr = pgxpool.NewWithConfig(ctx, poolCfg)
		if connErr == nil {
			if connErr = db.Ping(ctx); connErr == nil {
				break
			}
			db.Close()
		}
		slog.Warn("database not ready, retrying",
			"attempt", attempt,
			"error", connErr,
		)
		// time.NewTimer (not time.After) so the timer is released if ctx ends first.
		timer := time.NewTimer(time.Duration(attempt) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if connErr != nil {
		return nil, fmt.Errorf("database unavailable after retries: %w", connErr)
	}

	// Advisory: warn when migrations have not been applied for this binary.
	var schemaVersion int
	err = db.QueryRow(ctx,
		"SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&schemaVersion)
	if err == nil && schemaVersion != expectedSchemaVersion {
		slog.Warn("schema version mismatch — run `chwone migrate`",
			"applied_version", schemaVersion,
			"expected_version", expectedSchemaVersion,
		)
	}

	return db, nil
}

// expectedSchemaVersion is the database migration version this binary requires.
// Update this constant when new migrations are added.
const expectedSchemaVersion = 2

// newLogger creates a slog.Logger based on the configured log level and format.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" || cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
