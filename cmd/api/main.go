package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "github.com/lolaelo-web/lolaelo-api/internal/adapters/http_server"
	"github.com/lolaelo-web/lolaelo-api/internal/adapters/observability"
	"github.com/lolaelo-web/lolaelo-api/internal/adapters/pms"
	redisad "github.com/lolaelo-web/lolaelo-api/internal/adapters/redis"
	"github.com/lolaelo-web/lolaelo-api/internal/app"
	"github.com/lolaelo-web/lolaelo-api/internal/shared"
	mysqlrepo "github.com/lolaelo-web/lolaelo-api/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	catalog := app.NewCatalogService(repo, cache, cfg.CacheTTL)
	pricing := app.NewPricingService(repo, nil)
	calendar := app.NewCalendarService(repo, repo, pricing, cfg.RoomBudget, cfg.CalendarWorkers)
	bulk := app.NewBulkService(repo, repo)
	sessions := app.NewSessionService(repo, cache, cfg.SessionTTL, nil)

	// PMS endpoints stay up without a connector; they answer 503 instead.
	var syncer *app.SyncService
	if cfg.PMSKey != "" {
		client, err := pms.New(cfg.PMSBase, cfg.PMSKey, cfg.PMSRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PMS client")
		}
		syncer = app.NewSyncService(client, repo, bulk, nil)
	} else {
		log.Warn().Msg("PMS connector disabled")
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Catalog:  catalog,
		Calendar: calendar,
		Bulk:     bulk,
		Sessions: sessions,
		Sync:     syncer,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
