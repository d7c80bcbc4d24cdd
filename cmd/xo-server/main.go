package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "go.uber.org/zap"

    "github.com/Ademileke12/xo-base-mini-app/internal/builder"
    appcfg "github.com/Ademileke12/xo-base-mini-app/internal/config"
    "github.com/Ademileke12/xo-base-mini-app/internal/obslog"
)

func main() {
    cfg, err := appcfg.Load()
    if err != nil {
        log.Fatalf("config error: %v", err)
    }
    if err := obslog.InitFromEnv(); err != nil {
        log.Fatalf("logger init error: %v", err)
    }
    defer obslog.Sync()
    logger := obslog.L()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    deps, err := builder.New(ctx, cfg, logger)
    if err != nil {
        logger.Fatal("init_failed", zap.Error(err))
    }
    defer deps.Close()

    srv := &http.Server{
        Addr:              cfg.HTTPAddr,
        Handler:           deps.Handler,
        ReadHeaderTimeout: 5 * time.Second,
    }

    errCh := make(chan error, 1)
    go func() {
        logger.Info("http_listen", zap.String("addr", cfg.HTTPAddr))
        errCh <- srv.ListenAndServe()
    }()

    select {
    case <-ctx.Done():
        logger.Info("shutdown_requested")
    case err := <-errCh:
        if !errors.Is(err, http.ErrServerClosed) {
            logger.Error("http_serve_failed", zap.Error(err))
        }
    }

    sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := srv.Shutdown(sctx); err != nil {
        logger.Warn("http_shutdown", zap.Error(err))
    }
}
