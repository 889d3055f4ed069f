package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/vigia/config"
	"github.com/mohammad-safakhou/vigia/internal/analysis"
	"github.com/mohammad-safakhou/vigia/internal/search"
	"github.com/mohammad-safakhou/vigia/internal/store"
	"github.com/mohammad-safakhou/vigia/internal/telemetry"
)

// Run wires the service and blocks serving HTTP until the listener fails.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging. Domain
	// sentinels from the analysis package map onto transport codes here,
	// so handlers just return errors.
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code, msg := errorStatus(err)
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		baseLogger.Printf("WARN migrations: %v", err)
	}

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Storage.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			baseLogger.Printf("WARN redis unavailable (%s), ticker cache disabled: %v", cfg.Storage.Redis.Addr, err)
			rdb = nil
		}
	}

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New(prometheus.DefaultRegisterer)
	}

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch := search.NewOrchestrator(cfg.Sources, rdb, orchLogger, tele)

	model := analysis.NewGeminiModel(cfg.LLM)
	var textModel analysis.TextModel
	if model != nil {
		textModel = model
	}
	gw := analysis.NewGateway(textModel, cfg.LLM, log.New(log.Writer(), "[GEMINI] ", log.LstdFlags), tele)

	secret := cfg.Server.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret or VIGIA_JWT_SECRET)")
	}
	auth := &AuthHandler{Store: st, Secret: []byte(secret)}

	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	protected := api.Group("")
	protected.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, auth.Secret) })

	sh := &SearchHandler{Orch: orch, Gateway: gw, Store: st, Logger: orchLogger, Tele: tele}
	sh.Register(protected)

	ah := &AnalysisHandler{Gateway: gw, Store: st}
	ah.Register(protected.Group("/analysis"))

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":10010"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// errorStatus maps an error to its transport status and message.
func errorStatus(err error) (int, string) {
	if he, ok := err.(*echo.HTTPError); ok {
		msg := he.Error()
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg
	}
	switch {
	case analysis.IsInvalidArgument(err):
		return http.StatusBadRequest, err.Error()
	case analysis.IsServiceUnavailable(err):
		return http.StatusServiceUnavailable, err.Error()
	case analysis.IsMalformedResponse(err):
		return http.StatusInternalServerError, err.Error()
	}
	return http.StatusInternalServerError, err.Error()
}
