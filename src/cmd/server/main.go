package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/gateway"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/bank-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/bank-ledger/src/internal/adapter/notification"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/postgres"
	"github.com/api-sage/bank-ledger/src/internal/config"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
)

const shutdownTimeout = 15 * time.Second

type stores struct {
	accounts   domain.AccountStore
	users      domain.UserRepository
	ledger     domain.LedgerStore
	exceptions domain.ExceptionStore
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		logger.Warn("unknown log level, using info", logger.Fields{"level": cfg.LogLevel})
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("server failed to open stores", err, logger.Fields{"driver": cfg.StorageDriver})
		os.Exit(1)
	}
	defer st.close()

	var (
		accountStore domain.AccountStore
		credentials  domain.CredentialValidator
		registrars   []router.RouteRegistrar
	)

	if cfg.AccountStoreMode == config.AccountStoreModeRemote {
		accountStore = gateway.NewAccountServiceClient(gateway.Options{
			BaseURL:    cfg.AccountServiceURL,
			ChannelID:  cfg.ChannelID,
			ChannelKey: cfg.ChannelKey,
			Timeout:    cfg.CallTimeout,
		})
		credentials = gateway.NewCredentialServiceClient(gateway.Options{
			BaseURL:    cfg.CredentialServiceURL,
			ChannelID:  cfg.ChannelID,
			ChannelKey: cfg.ChannelKey,
			Timeout:    cfg.CallTimeout,
		})
	} else {
		accountStore = st.accounts
		credentialService := services.NewCredentialService(st.users)
		credentials = credentialService
		registrars = append(registrars,
			controller.NewAccountStoreController(st.accounts),
			controller.NewCredentialController(credentialService),
		)
	}

	var alerter domain.Alerter
	if cfg.AlertWebhookURL != "" {
		alerter = notification.NewWebhookAlerter(cfg.AlertWebhookURL)
	}

	movementService := services.NewMoneyMovementService(accountStore, credentials, st.ledger, st.exceptions, alerter, cfg.CallTimeout)

	registrars = append(registrars,
		controller.NewTransactionController(movementService),
		controller.NewOperationsController(st.exceptions),
	)
	handler := router.New(middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey), registrars...)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.RequestID(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.Fields{
			"addr":             cfg.HTTPAddr,
			"storageDriver":    cfg.StorageDriver,
			"accountStoreMode": cfg.AccountStoreMode,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", err, nil)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", err, nil)
		return
	}
	logger.Info("server stopped", nil)
}

// openStores opens the ledger side always and the account side only when the
// account store runs in process.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	local := cfg.AccountStoreMode == config.AccountStoreModeLocal

	if cfg.StorageDriver == config.StorageDriverMemory {
		st := stores{
			ledger:     memory.NewLedgerStore(),
			exceptions: memory.NewExceptionStore(),
			close:      func() {},
		}
		if !local {
			return st, nil
		}

		accounts := memory.NewAccountStore()
		users := memory.NewUserRepository()
		if cfg.SeedFile != "" {
			if err := memory.LoadSeed(cfg.SeedFile, accounts, users, services.HashTransactionPin); err != nil {
				return stores{}, err
			}
		}
		st.accounts = accounts
		st.users = users
		return st, nil
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var db *sql.DB
	if local {
		if err := postgres.RunMigrations(migrateCtx, cfg.DatabaseDSN, filepath.Join(cfg.MigrationsDir, "accounts")); err != nil {
			return stores{}, err
		}
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return stores{}, err
		}
	}
	closeDB := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	if err := postgres.RunMigrations(migrateCtx, cfg.LedgerDatabaseDSN, filepath.Join(cfg.MigrationsDir, "ledger")); err != nil {
		closeDB()
		return stores{}, err
	}
	pool, err := postgres.OpenPool(ctx, cfg.LedgerDatabaseDSN)
	if err != nil {
		closeDB()
		return stores{}, err
	}

	st := stores{
		ledger:     postgres.NewLedgerRepository(pool),
		exceptions: postgres.NewExceptionRepository(pool),
		close: func() {
			pool.Close()
			closeDB()
		},
	}
	if local {
		st.accounts = postgres.NewAccountStore(db)
		st.users = postgres.NewUserRepository(db)
	}
	return st, nil
}
