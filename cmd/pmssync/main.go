package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/lolaelo-web/lolaelo-api/internal/adapters/observability"
	"github.com/lolaelo-web/lolaelo-api/internal/adapters/pms"
	"github.com/lolaelo-web/lolaelo-api/internal/app"
	"github.com/lolaelo-web/lolaelo-api/internal/shared"
	mysqlrepo "github.com/lolaelo-web/lolaelo-api/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "pmssync")

	log.Info().
		Str("base", cfg.PMSBase).
		Int("workers", cfg.SyncWorkers).
		Int("days", cfg.SyncDays).
		Int("partners", len(cfg.SyncPartnerIDs)).
		Msg("pms sync starting")

	if len(cfg.SyncPartnerIDs) == 0 {
		log.Warn().Msg("SYNC_PARTNER_IDS is empty; nothing to do")
		return
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := pms.New(cfg.PMSBase, cfg.PMSKey, cfg.PMSRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PMS client")
	}
	bulk := app.NewBulkService(repo, repo)
	syncer := app.NewSyncService(client, repo, bulk, nil)

	sem := semaphore.NewWeighted(int64(cfg.SyncWorkers))
	var wg sync.WaitGroup

	for _, id := range cfg.SyncPartnerIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(partnerID int64) {
			defer wg.Done()
			defer sem.Release(int64(1))

			rep, err := syncer.SyncPartner(ctx, partnerID, cfg.SyncDays)
			if err != nil {
				log.Warn().Int64("partner", partnerID).Err(err).Msg("sync failed")
				return
			}
			log.Info().
				Int64("partner", partnerID).
				Bool("connected", rep.Connected).
				Int("rooms", rep.Rooms).
				Int("upserted", rep.Upserted).
				Int("skipped", rep.Skipped).
				Msg("sync ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("pms sync completed")
}
