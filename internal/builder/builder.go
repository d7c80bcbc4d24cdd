package builder

import (
    "context"
    "crypto/tls"
    "database/sql"
    "fmt"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/Ademileke12/xo-base-mini-app/internal/config"
    "github.com/Ademileke12/xo-base-mini-app/internal/game"
    "github.com/Ademileke12/xo-base-mini-app/internal/ledger"
    "github.com/Ademileke12/xo-base-mini-app/internal/msgcat"
    "github.com/Ademileke12/xo-base-mini-app/internal/notify"
    "github.com/Ademileke12/xo-base-mini-app/internal/online"
    "github.com/Ademileke12/xo-base-mini-app/internal/realtime"
    "github.com/Ademileke12/xo-base-mini-app/internal/render"
    "github.com/Ademileke12/xo-base-mini-app/internal/session"
    "github.com/Ademileke12/xo-base-mini-app/internal/web"
)

type Deps struct {
    Engine   *game.Engine
    Ledger   *ledger.Service
    Sessions *session.Service
    Online   *online.Manager
    Hub      *realtime.Hub
    Catalog  *msgcat.Catalog
    Renderer render.BoardRenderer
    Handler  http.Handler

    redis *redis.Client
    db    *sql.DB
}

// New builds every service from cfg. Redis and Postgres are optional;
// without them games and profiles live in process memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
    if cfg == nil {
        return nil, fmt.Errorf("nil config")
    }
    if logger == nil {
        logger = zap.NewNop()
    }
    d := &Deps{}
    ok := false
    defer func() {
        if !ok {
            _ = d.Close()
        }
    }()

    catalog, err := msgcat.New(cfg.MsgCatalogDir)
    if err != nil {
        return nil, fmt.Errorf("load messages: %w", err)
    }
    d.Catalog = catalog

    difficulty, err := game.ParseDifficulty(cfg.AIDifficulty)
    if err != nil {
        return nil, err
    }
    d.Engine = game.NewEngine(game.WithRandomRate(cfg.AIRandomRate))

    if strings.TrimSpace(cfg.RedisURL) != "" {
        opts, perr := parseRedisURL(cfg.RedisURL)
        if perr != nil {
            return nil, fmt.Errorf("parse redis url: %w", perr)
        }
        d.redis = redis.NewClient(opts)
        pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
        err = d.redis.Ping(pctx).Err()
        cancel()
        if err != nil {
            return nil, fmt.Errorf("ping redis: %w", err)
        }
    } else {
        logger.Warn("redis_disabled", zap.String("reason", "REDIS_URL not set; using in-memory stores"))
    }

    repo := ledger.NewMemoryRepository()
    if strings.TrimSpace(cfg.DatabaseURL) != "" {
        d.db, err = ledger.OpenPostgres(ctx, cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        repo = ledger.NewRepository(d.db)
    } else {
        logger.Warn("postgres_disabled", zap.String("reason", "DATABASE_URL not set; profiles are not persisted"))
    }
    d.Ledger, err = ledger.NewService(repo, ledger.Config{
        DefaultPoints:      cfg.DefaultXOPoints,
        LeaderboardLimit:   cfg.LeaderboardLimit,
        RecentMatchesLimit: cfg.RecentMatchesLimit,
    }, logger.Named("ledger"))
    if err != nil {
        return nil, err
    }

    sessionTTL := time.Duration(cfg.SessionTTLSec) * time.Second
    onlineTTL := time.Duration(cfg.OnlineGameTTLSec) * time.Second
    var (
        sessStore session.Store = session.NewMemoryStore(sessionTTL)
        gameStore online.Store  = online.NewMemoryStore()
    )
    if d.redis != nil {
        sessStore = session.NewRedisStore(d.redis, sessionTTL)
        gameStore = online.NewRedisStore(d.redis, onlineTTL, logger.Named("online_store"))
    }

    d.Sessions, err = session.NewService(sessStore, d.Engine, d.Ledger, session.Config{DefaultDifficulty: difficulty}, logger.Named("session"))
    if err != nil {
        return nil, err
    }

    var mopts []online.ManagerOption
    if cfg.NotifyWebhookURL != "" {
        copts := []notify.Option{notify.WithTimeout(time.Duration(cfg.NotifyTimeoutMS) * time.Millisecond)}
        if cfg.NotifyToken != "" {
            copts = append(copts, notify.WithBearerToken(cfg.NotifyToken))
        }
        client := notify.NewClient(cfg.NotifyWebhookURL, copts...)
        mopts = append(mopts, online.WithNotifier(notify.NewNotifier(client, catalog, logger.Named("notify"))))
    }
    d.Online, err = online.NewManager(gameStore, d.Ledger, logger.Named("online"), mopts...)
    if err != nil {
        return nil, err
    }

    d.Hub = realtime.NewHub(d.Online, logger.Named("realtime"), realtime.WithOriginPatterns(cfg.AllowedOrigins...))
    d.Renderer = render.NewPNGRenderer()
    d.Handler = web.NewServer(web.Deps{
        Sessions: d.Sessions,
        Online:   d.Online,
        Ledger:   d.Ledger,
        Hub:      d.Hub,
        Renderer: d.Renderer,
        Catalog:  d.Catalog,
        Logger:   logger.Named("http"),
    })

    ok = true
    return d, nil
}

// Close releases the Redis and Postgres pools.
func (d *Deps) Close() error {
    var first error
    if d.redis != nil {
        if err := d.redis.Close(); err != nil && first == nil {
            first = err
        }
    }
    if d.db != nil {
        if err := d.db.Close(); err != nil && first == nil {
            first = err
        }
    }
    return first
}

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil {
        return nil, err
    }
    if u.Scheme != "redis" && u.Scheme != "rediss" {
        return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
    }
    host := u.Hostname()
    if host == "" {
        host = "localhost"
    }
    portStr := u.Port()
    if portStr == "" {
        portStr = "6379"
    }
    if _, err := strconv.Atoi(portStr); err != nil {
        return nil, err
    }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" {
        n, err := strconv.Atoi(p)
        if err != nil {
            return nil, fmt.Errorf("invalid db index: %s", p)
        }
        db = n
    }
    pass, _ := u.User.Password()
    opts := &redis.Options{
        Addr:     host + ":" + portStr,
        Username: u.User.Username(),
        Password: pass,
        DB:       db,
    }
    if u.Scheme == "rediss" {
        opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}
