package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gympal-app/backend/internal/auth"
	"github.com/gympal-app/backend/internal/coach"
	"github.com/gympal-app/backend/internal/coach/llm"
	"github.com/gympal-app/backend/internal/config"
	"github.com/gympal-app/backend/internal/db"
	"github.com/gympal-app/backend/internal/exercises"
	"github.com/gympal-app/backend/internal/middleware"
	"github.com/gympal-app/backend/internal/profile"
	"github.com/gympal-app/backend/internal/schedule"
	"github.com/gympal-app/backend/internal/telemetry/metrics"
	metricsmiddleware "github.com/gympal-app/backend/internal/telemetry/metrics/middleware"
	"github.com/gympal-app/backend/internal/telemetry/tracing"
	"github.com/gympal-app/backend/internal/templates"
	"github.com/gympal-app/backend/internal/workouts"
	"github.com/gympal-app/backend/internal/workouts/backup"
	"github.com/gympal-app/backend/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service
	llmClient    *llm.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	OpenRouterAPIKey        string
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("gympal", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

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

	authService := auth.NewAuthService(
		auth.NewUsersRepo(dbPool),
		auth.DefaultTTL,
		rdb,
	)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gympal-backend", rdb)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),
		llmClient:    llm.NewClient(params.OpenRouterAPIKey, params.Config.OpenRouterBaseURL),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
	}).Methods("GET").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	authHandler := auth.NewHandler(s.authService)
	authRouter := r.PathPrefix("/a").Subrouter()
	authRouter.HandleFunc("/register", authHandler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", authHandler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", authHandler.HandleLogout).Methods("GET", "OPTIONS").Name("logout")
	// rate limit the auth endpoints to prevent abuse
	authRouter.Use(middleware.RateLimit(
		reqRateLimiter, "login",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))
	authRouter.Use(middleware.Cors())

	exercisesRepo := exercises.NewRepo(s.dbPool)
	kindCache := exercises.NewKindCache(exercisesRepo)
	exercisesHandler := exercises.NewHandler(exercisesRepo)
	r.HandleFunc("/exercises", exercisesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/exercises", exercisesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/exercises/seed", exercisesHandler.HandleSeed).Methods("POST", "OPTIONS").Name("seed-exercises")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")

	templatesRepo := templates.NewRepo(s.dbPool)
	expander := templates.NewExpander(kindCache)
	templatesHandler := templates.NewHandler(templatesRepo, expander)
	r.HandleFunc("/templates", templatesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-templates")
	r.HandleFunc("/templates", templatesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-template")
	r.HandleFunc("/templates/{id}", templatesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-template")
	r.HandleFunc("/templates/{id}", templatesHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-template")
	r.HandleFunc("/templates/{id}", templatesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-template")

	scheduleRepo := schedule.NewRepo(s.dbPool)
	workoutsRepo := workouts.NewRepo(s.dbPool)
	calendar := schedule.NewCalendar(scheduleRepo, workoutsRepo)
	scheduleHandler := schedule.NewHandler(scheduleRepo, calendar)
	r.HandleFunc("/schedule", scheduleHandler.HandleCalendar).Methods("GET", "OPTIONS").Name("get-schedule")
	r.HandleFunc("/schedule", scheduleHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-scheduled-workout")
	r.HandleFunc("/schedule/{id}", scheduleHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-scheduled-workout")
	r.HandleFunc("/schedule/{id}", scheduleHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-scheduled-workout")

	prRepo := workouts.NewPRRepo(s.dbPool)
	prTracker := workouts.NewPRTracker(prRepo, s.metricsManager)
	workoutsHandler := workouts.NewHandler(
		workoutsRepo,
		templatesRepo,
		kindCache,
		prRepo,
		prTracker,
		s.metricsManager,
	)
	r.HandleFunc("/workouts", workoutsHandler.HandleStart).Methods("POST", "OPTIONS").Name("start-workout")
	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/prs", workoutsHandler.HandleListPRs).Methods("GET", "OPTIONS").Name("list-prs")

	profileRepo := profile.NewRepo(s.dbPool)
	profileHandler := profile.NewHandler(
		profileRepo,
		profile.NewInsightsGenerator(s.llmClient),
	)
	r.HandleFunc("/profile", profileHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile", profileHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-profile")
	r.HandleFunc("/profile/insights", profileHandler.HandleGetInsights).Methods("GET", "OPTIONS").Name("get-insights")
	r.HandleFunc("/profile/insights/generate", profileHandler.HandleGenerateInsights).Methods("POST", "OPTIONS").Name("generate-insights")

	contextService := profile.NewContextService(auth.NewUsersRepo(s.dbPool), profileRepo)
	coachExecutor := coach.NewExecutor(coach.NewExecutorParams{
		Exercises:      exercisesRepo,
		Templates:      templatesRepo,
		Schedule:       scheduleRepo,
		Calendar:       calendar,
		History:        workouts.NewAnalyzer(workoutsRepo, kindCache),
		ProfileContext: contextService,
		Insights:       profileRepo,
		Expander:       expander,
		Metrics:        s.metricsManager,
	})
	coachHandler := coach.NewHandler(
		coach.NewOrchestrator(s.llmClient, coachExecutor, contextService),
		s.metricsManager,
	)
	coachRouter := r.PathPrefix("/coach").Subrouter()
	coachRouter.HandleFunc("/chat", coachHandler.HandleChat).Methods("POST", "OPTIONS").Name("coach-chat")
	// one chat turn can fan out into multiple model calls, keep a lid on it
	coachRouter.Use(middleware.RateLimit(
		reqRateLimiter, "coach",
		s.config.CoachRateLimitAllowedPerMin,
		s.metricsManager,
	))

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metricsmiddleware.
		New(s.promRegistry, nil).
		WrapHandler("/metrics", promhttp.HandlerFor(
			s.promRegistry,
			promhttp.HandlerOpts{}),
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

	// workouts backup metrics unix socket
	s.setBackupMetricsUnixSocket(ctx)
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

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if s.config.BackupUnixSocketAddrDir != "" {
		log.Debugln("removing workouts backup unix socket ...")
		if err := os.RemoveAll(s.config.BackupUnixSocketAddrDir); err != nil {
			log.Errorf("failed to cleanup workouts backup unix socket dir: %s", err)
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

func (s *Server) setBackupMetricsUnixSocket(ctx context.Context) {
	if s.config.BackupUnixSocketAddrDir == "" {
		log.Debugln("workouts backup unix socket dir not set, skipping")
		return
	}

	if err := os.MkdirAll(s.config.BackupUnixSocketAddrDir, os.ModePerm); err != nil {
		log.Errorf("failed to create workouts backup unix socket dir: %s", err)
		return
	}

	if addr, err := backup.MetricsUnixSocketListenerSetup(
		ctx,
		s.config.BackupUnixSocketAddrDir,
		s.config.BackupUnixSocketFileName,
		s.metricsManager,
	); err != nil {
		log.Errorf("failed to create workouts backup unix socket: %s", err)
	} else {
		log.Debugf("workouts backup unix socket: %s", addr)
	}
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
