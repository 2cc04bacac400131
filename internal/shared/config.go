package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv    string
	HTTPAddr  string
	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	PMSBase string
	PMSKey  string
	PMSRPS  int

	CacheTTL   time.Duration // public catalog projection
	SessionTTL time.Duration // verified session cache

	RoomBudget      time.Duration // per-room calendar assembly budget
	CalendarWorkers int

	SyncWorkers    int
	SyncDays       int
	SyncPartnerIDs []int64
}

func Load() Config {
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/lolaelo?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisDB:         atoi("REDIS_DB", 0),
		RedisPass:       env("REDIS_PASSWORD", ""),
		PMSBase:         env("PMS_BASE_URL", "http://localhost:7878"),
		PMSKey:          env("PMS_API_KEY", ""),
		PMSRPS:          atoi("PMS_RPS", 5),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SessionTTL:      time.Duration(atoi("SESSION_CACHE_TTL_SECONDS", 60)) * time.Second,
		RoomBudget:      time.Duration(atoi("ROOM_BUDGET_MS", 2000)) * time.Millisecond,
		CalendarWorkers: atoi("CALENDAR_WORKERS", 4),
		SyncWorkers:     atoi("SYNC_WORKERS", 4),
		SyncDays:        atoi("SYNC_DAYS", 30),
		SyncPartnerIDs:  ids("SYNC_PARTNER_IDS"),
	}
	if c.PMSKey == "" {
		log.Warn().Msg("PMS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func ids(k string) []int64 {
	raw := os.Getenv(k)
	if raw == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil && id > 0 {
			out = append(out, id)
		}
	}
	return out
}
