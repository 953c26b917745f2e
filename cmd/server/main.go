// Command server runs the peatrack HTTP API.
//
// Databases under the data directory:
//   - config.db:  runtime settings
//   - history.db: daily close history
//   - cache.db:   price and series cache with TTL expiry
//
// The portfolio itself lives in a plain JSON file so it stays easy to
// inspect, back up and edit by hand.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/peatrack/peatrack/internal/clientdata"
	"github.com/peatrack/peatrack/internal/config"
	"github.com/peatrack/peatrack/internal/database"
	"github.com/peatrack/peatrack/internal/modules/analytics"
	analyticshandlers "github.com/peatrack/peatrack/internal/modules/analytics/handlers"
	"github.com/peatrack/peatrack/internal/modules/charts"
	chartshandlers "github.com/peatrack/peatrack/internal/modules/charts/handlers"
	"github.com/peatrack/peatrack/internal/modules/marketdata"
	marketdatahandlers "github.com/peatrack/peatrack/internal/modules/marketdata/handlers"
	"github.com/peatrack/peatrack/internal/modules/portfolio"
	portfoliohandlers "github.com/peatrack/peatrack/internal/modules/portfolio/handlers"
	"github.com/peatrack/peatrack/internal/modules/settings"
	settingshandlers "github.com/peatrack/peatrack/internal/modules/settings/handlers"
	"github.com/peatrack/peatrack/internal/scheduler"
	"github.com/peatrack/peatrack/internal/server"
	"github.com/peatrack/peatrack/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting peatrack")

	// Databases.
	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Profile: database.ProfileStandard,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open config.db")
	}
	defer configDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history.db")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache.db")
	}
	defer cacheDB.Close()

	if err := settings.InitSchema(configDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to init settings schema")
	}
	if err := marketdata.InitHistorySchema(historyDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to init history schema")
	}
	if err := clientdata.InitSchema(cacheDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to init cache schema")
	}

	// Services.
	settingsRepo := settings.NewRepository(configDB.Conn(), log)
	settingsService := settings.NewService(settingsRepo, log)

	portfolioService := portfolio.NewService(cfg.PortfolioPath, log)
	if err := portfolioService.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.PortfolioPath).Msg("Failed to load portfolio")
	}

	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	historyRepo := marketdata.NewHistoryRepository(historyDB.Conn())
	yahooClient := marketdata.NewYahooClient(log)
	marketService := marketdata.NewService(yahooClient, cacheRepo, historyRepo, log)

	engine := analytics.NewEngine(portfolioService.Portfolio(), marketService, log)
	chartService := charts.NewService(engine, settingsService, log)

	// Background jobs.
	sched := scheduler.New(log)
	refreshJob := marketdata.NewRefreshJob(marketService, portfolioService.Portfolio(), settingsService, log)
	cleanupJob := clientdata.NewCleanupJob(cacheRepo, log)

	refreshSchedule := fmt.Sprintf("0 */%d * * * *", settingsService.AutoRefreshIntervalMinutes())
	if err := sched.AddJob(refreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule market refresh")
	}
	if err := sched.AddJob("@daily", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache cleanup")
	}
	sched.Start()

	// HTTP server.
	srv := server.New(server.Config{
		Log:               log,
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		PortfolioHandler:  portfoliohandlers.NewHandler(portfolioService, log),
		MarketDataHandler: marketdatahandlers.NewHandler(marketService, portfolioService.Portfolio(), log),
		AnalyticsHandler:  analyticshandlers.NewHandler(engine, settingsService, log),
		ChartsHandler:     chartshandlers.NewHandler(chartService, log),
		SettingsHandler:   settingshandlers.NewHandler(settingsService, log),
		Scheduler:         sched,
		RefreshJob:        refreshJob,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Warm the cache so the first dashboard load has prices.
	go func() {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Warn().Err(err).Msg("Initial market data refresh failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Scheduler did not stop cleanly")
	}

	log.Info().Msg("Server stopped")
}
