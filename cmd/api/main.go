package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/dashboard/internal/config"
	"github.com/mkravets/dashboard/internal/events"
	"github.com/mkravets/dashboard/internal/httpserver"
	"github.com/mkravets/dashboard/internal/logging"
	"github.com/mkravets/dashboard/internal/middleware"
	"github.com/mkravets/dashboard/internal/repo"
	"github.com/mkravets/dashboard/internal/service"
	"github.com/mkravets/dashboard/internal/sessionstore"
	"github.com/mkravets/dashboard/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rdb := config.InitRedis(cfg)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("redis init error: %v", err)
	}
	cancel()

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	codec := &tokens.Codec{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}

	ledger := &repo.LedgerRepo{DB: db}
	svc := &service.AuthService{
		Users:    &repo.UserRepo{DB: db},
		Ledger:   ledger,
		Sessions: sessionstore.NewRedisStore(rdb),
		Codec:    codec,
		Events:   producer,
	}

	e := echo.New()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		AuthMw:      middleware.NewAuth(codec),
		DB:          db,
		Redis:       rdb,
	})

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go runLedgerJanitor(janitorCtx, ledger, logger)

	go func() {
		if err := e.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	stopJanitor()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}

// runLedgerJanitor prunes expired ledger rows once an hour. Liveness never
// depends on the ledger, so failures here only get logged.
func runLedgerJanitor(ctx context.Context, ledger *repo.LedgerRepo, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := ledger.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.Warn("ledger_prune_failed", "error", err)
				continue
			}
			if pruned > 0 {
				logger.Info("ledger_pruned", "rows", pruned)
			}
		}
	}
}
