package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/2beens/ironhub/internal/config"
	"github.com/2beens/ironhub/internal/fitlog"
	"github.com/2beens/ironhub/internal/identity"
	"github.com/2beens/ironhub/internal/middleware"
	"github.com/2beens/ironhub/internal/session"
	"github.com/2beens/ironhub/internal/telemetry/metrics"
	"github.com/2beens/ironhub/internal/telemetry/tracing"
	"github.com/2beens/ironhub/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/option"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config         *config.Config
	eventStore     fitlog.EventStore
	tableCache     *fitlog.TableCache
	fitlogService  *fitlog.Service
	sessionManager *session.Manager

	redisClient *redis.Client

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	SheetsCredentialsPath   string
	RedisPassword           string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("ironhub", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // will be set to 1 when all is set and ran

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "ironhub-backend")
	if err != nil {
		return nil, err
	}

	eventStore, err := newEventStore(ctx, params.Config, params.SheetsCredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("new event store: %w", err)
	}

	tableCache := fitlog.NewTableCache(params.Config.CacheTTLSeconds)
	fitlogService := fitlog.NewService(eventStore, tableCache, metricsManager)

	sessionManager := session.NewManager(session.DefaultTTL, rdb, identity.NewTrimResolver())
	go func() {
		for range time.Tick(time.Hour * 8) {
			sessionManager.ScanAndClean(ctx)
		}
	}()

	return &Server{
		config:      params.Config,
		versionInfo: params.VersionInfo,

		eventStore:     eventStore,
		tableCache:     tableCache,
		fitlogService:  fitlogService,
		sessionManager: sessionManager,

		redisClient: rdb,

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func newEventStore(
	ctx context.Context,
	cfg *config.Config,
	sheetsCredentialsPath string,
) (fitlog.EventStore, error) {
	switch cfg.StoreBackend {
	case "sheets":
		tracedHttpClient := &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		return fitlog.NewSheetsEventStore(
			ctx,
			cfg.SpreadsheetID,
			cfg.SpreadsheetSheetName,
			option.WithCredentialsFile(sheetsCredentialsPath),
			option.WithHTTPClient(tracedHttpClient),
		)
	case "csv":
		storeDir := filepath.Dir(cfg.CsvStorePath)
		if exists, err := pkg.PathExists(storeDir, true); err != nil {
			return nil, fmt.Errorf("check csv store dir: %w", err)
		} else if !exists {
			return nil, fmt.Errorf("csv store dir %s does not exist", storeDir)
		}
		return fitlog.NewCsvEventStore(cfg.CsvStorePath)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	writeRateLimiter := redis_rate.NewLimiter(s.redisClient)
	fitlogHandler := fitlog.NewHandler(s.fitlogService)
	fitlogHandler.SetupRoutes(r, writeRateLimiter, s.config.EntryRateLimitAllowedPerMin)

	sessionHandler := session.NewHandler(s.sessionManager)
	sessionHandler.SetupRoutes(r)

	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(s.versionInfo)); err != nil {
			log.Errorf("failed to write version response: %s", err)
		}
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
