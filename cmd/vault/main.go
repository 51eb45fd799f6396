// Command vault is an interactive, credential-gated encrypted record store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/secure-vault/internal/cli"
	"github.com/and161185/secure-vault/internal/config"
	pkgcrypto "github.com/and161185/secure-vault/internal/crypto"
	"github.com/and161185/secure-vault/internal/limiter"
	"github.com/and161185/secure-vault/internal/migrate"
	"github.com/and161185/secure-vault/internal/repository"
	"github.com/and161185/secure-vault/internal/repository/jsonfile"
	"github.com/and161185/secure-vault/internal/repository/postgres"
	"github.com/and161185/secure-vault/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run wires configuration, storage and services, then drives the shell until
// the user quits. Logs go to stderr so the shell owns stdout.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("backend", cfg.Backend),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", zap.Error(err))
		return 1
	}
	defer closeStore()

	kdf, err := pkgcrypto.NewKDF([]byte(cfg.Salt), cfg.KDFIterations)
	if err != nil {
		logger.Error("kdf", zap.Error(err))
		return 2
	}
	logger.Debug("kdf ready", zap.Int("iterations", kdf.Iterations()))
	lim := limiter.New(cfg.LockoutThreshold, cfg.LockoutDuration, nil)
	vault := service.NewVault(store, kdf, lim, logger)

	sess, err := service.NewSession()
	if err != nil {
		logger.Error("new session", zap.Error(err))
		return 1
	}

	app := cli.New(vault, sess, stdin, stdout, logger)
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("shell", zap.Error(err))
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

// newLogger builds a production (JSON) or development (console) zap logger
// writing to w at cfg.LogLevel.
func newLogger(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	enc := zapcore.NewJSONEncoder(encCfg)
	opts := []zap.Option{zap.AddCaller()}
	if cfg.Dev {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
		opts = append(opts, zap.Development())
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core, opts...), nil
}

// openStore returns the configured registry store and its release func.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.RegistryStore, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		if err := migrate.Up(ctx, cfg.DSN, log); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.NewRegistryRepo(db, log), db.Close, nil
	default:
		log.Info("using data file", zap.String("path", cfg.DataFile))
		return jsonfile.New(cfg.DataFile, log), func() {}, nil
	}
}
