package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Armolas/ajo-savings/pkg/coordinator"
	"github.com/Armolas/ajo-savings/pkg/funding"
	"github.com/Armolas/ajo-savings/pkg/handlers"
	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/ledger/evm"
	"github.com/Armolas/ajo-savings/pkg/ledger/memory"
	"github.com/Armolas/ajo-savings/pkg/logging"
	"github.com/Armolas/ajo-savings/pkg/repository"
)

func main() {
	// Load environment variables from .env file
	envLoaded := godotenv.Load() == nil

	logger := logging.Setup()
	if !envLoaded {
		logger.Debug("no .env file found, using environment variables")
	}

	var (
		backend ledger.Ledger
		cleanup func()
	)
	switch os.Getenv("LEDGER_BACKEND") {
	case "", "memory":
		logger.Info("using in-memory ledger backend")
		backend = memory.New()
		cleanup = func() {}
	case "evm":
		chainID, err := strconv.ParseInt(os.Getenv("EVM_CHAIN_ID"), 10, 64)
		if err != nil {
			logger.Error("EVM_CHAIN_ID must be set to a numeric chain id", "error", err)
			os.Exit(1)
		}
		gateway, err := evm.New(evm.Config{
			RPCURL:          os.Getenv("EVM_RPC_URL"),
			ContractAddress: os.Getenv("AJO_CONTRACT_ADDRESS"),
			PrivateKeyHex:   os.Getenv("EVM_PRIVATE_KEY"),
			ChainID:         chainID,
		})
		if err != nil {
			logger.Error("failed to initialize evm ledger gateway", "error", err)
			os.Exit(1)
		}
		logger.Info("using evm ledger backend",
			"contract", os.Getenv("AJO_CONTRACT_ADDRESS"), "signer", gateway.SignerAddress())
		backend = gateway
		cleanup = gateway.Close
	default:
		logger.Error("unknown LEDGER_BACKEND", "value", os.Getenv("LEDGER_BACKEND"))
		os.Exit(1)
	}
	defer cleanup()

	cacheTTL := repository.DefaultTTL
	if raw := os.Getenv("CACHE_TTL_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 || seconds > 60 {
			logger.Error("CACHE_TTL_SECONDS must be an integer between 0 and 60", "value", raw)
			os.Exit(1)
		}
		cacheTTL = time.Duration(seconds) * time.Second
	}

	repo := repository.New(backend, backend, cacheTTL)
	view := funding.NewView(backend)
	coord := coordinator.New(backend, repo, logger)
	router := handlers.NewRouter(logger, repo, coord, view)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
