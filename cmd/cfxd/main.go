package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/cfxkit/params"
	"github.com/uhyunpark/cfxkit/pkg/api"
	"github.com/uhyunpark/cfxkit/pkg/crypto"
	"github.com/uhyunpark/cfxkit/pkg/storage"
	"github.com/uhyunpark/cfxkit/pkg/util"
	"github.com/uhyunpark/cfxkit/pkg/wallet"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	// Setup logging (write to both console and file, console only without LOG_FILE)
	var logger *zap.Logger
	var err error
	if cfg.LogFile == "" {
		logger, err = util.NewLogger(cfg.LogLevel)
	} else {
		logger, err = util.NewLoggerWithFile(cfg.LogFile, cfg.LogLevel)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile, "level", cfg.LogLevel)

	// ---- Keystore ----
	store, err := storage.NewKeystoreStore(cfg.Keystore.DBPath, util.RealClock{})
	if err != nil {
		sugar.Fatalw("keystore_open_failed", "path", cfg.Keystore.DBPath, "err", err)
	}

	manager, err := wallet.NewManager(store, wallet.Options{
		NetName: cfg.Network.NetName,
		Scrypt:  crypto.ScryptParams{N: cfg.Keystore.ScryptN, P: cfg.Keystore.ScryptP},
		Logger:  sugar,
	})
	if err != nil {
		store.Close()
		sugar.Fatalw("wallet_init_failed", "err", err)
	}
	defer manager.Close()

	accounts, err := manager.Accounts()
	if err != nil {
		sugar.Fatalw("keystore_scan_failed", "err", err)
	}
	sugar.Infow("wallet_ready",
		"net_name", manager.NetName(),
		"accounts", len(accounts),
		"db_path", cfg.Keystore.DBPath,
		"scrypt_n", cfg.Keystore.ScryptN)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API Server ----
	apiServer := api.NewServer(manager, cfg.API.AllowedOrigins, sugar)
	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start(cfg.API.Addr)
	}()

	select {
	case <-ctx.Done():
		sugar.Info("shutdown_requested")
	case err := <-errCh:
		if err != nil {
			sugar.Errorw("api_server_failed", "err", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("api_shutdown_failed", "err", err)
	}
	sugar.Info("stopped")
}
