package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	alertapp "medasset-sentinel/internal/alerts/application"
	alertpg "medasset-sentinel/internal/alerts/infrastructure/postgres"
	alerthttp "medasset-sentinel/internal/alerts/interfaces/http"
	"medasset-sentinel/internal/audit"
	"medasset-sentinel/internal/auth"
	"medasset-sentinel/internal/config"
	"medasset-sentinel/internal/dashboard"
	equipmentapp "medasset-sentinel/internal/equipment/application"
	equipmentpg "medasset-sentinel/internal/equipment/infrastructure/postgres"
	equipmenthttp "medasset-sentinel/internal/equipment/interfaces/http"
	maintenanceapp "medasset-sentinel/internal/maintenance/application"
	maintenancepg "medasset-sentinel/internal/maintenance/infrastructure/postgres"
	maintenancehttp "medasset-sentinel/internal/maintenance/interfaces/http"
	"medasset-sentinel/internal/observability/metrics"
	sensorapp "medasset-sentinel/internal/sensors/application"
	sensorpg "medasset-sentinel/internal/sensors/infrastructure/postgres"
	sensorhttp "medasset-sentinel/internal/sensors/interfaces/http"
)

func main() {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
	logger := logrus.StandardLogger()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwtSecret is required")
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer db.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancelPing()
		logger.Fatalf("ping db: %v", err)
	}
	cancelPing()

	metrics.Init(db, logger)

	equipmentRepo := equipmentpg.NewEquipmentRepository(db)
	alertRepo := alertpg.NewAlertRepository(db)
	ledgerRepo := maintenancepg.NewLedgerRepository(db)
	eventRepo := sensorpg.NewEventRepository(db)
	auditRepo := audit.NewRepository(db)

	equipmentSvc, err := equipmentapp.NewService(equipmentRepo)
	if err != nil {
		logger.Fatalf("equipment service: %v", err)
	}
	alertSvc, err := alertapp.NewService(alertRepo, equipmentRepo)
	if err != nil {
		logger.Fatalf("alert service: %v", err)
	}
	maintenanceSvc, err := maintenanceapp.NewService(ledgerRepo, equipmentRepo)
	if err != nil {
		logger.Fatalf("maintenance service: %v", err)
	}
	scanner, err := maintenanceapp.NewScanner(equipmentRepo, alertSvc, maintenanceapp.WithScannerLogger(logger))
	if err != nil {
		logger.Fatalf("compliance scanner: %v", err)
	}
	sensorSvc, err := sensorapp.NewService(eventRepo, equipmentRepo, alertSvc)
	if err != nil {
		logger.Fatalf("sensor service: %v", err)
	}
	authSvc := auth.NewService(
		auth.NewPostgresAdminStore(db),
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)

	router := mux.NewRouter()

	equipmentHandler, err := equipmenthttp.NewHandler(equipmentSvc, auditRepo, logger)
	if err != nil {
		logger.Fatalf("equipment handler: %v", err)
	}
	alertHandler, err := alerthttp.NewHandler(alertSvc, auditRepo, logger)
	if err != nil {
		logger.Fatalf("alert handler: %v", err)
	}
	maintenanceHandler, err := maintenancehttp.NewHandler(maintenanceSvc, scanner, auditRepo, logger)
	if err != nil {
		logger.Fatalf("maintenance handler: %v", err)
	}
	sensorHandler, err := sensorhttp.NewHandler(sensorSvc, logger)
	if err != nil {
		logger.Fatalf("sensor handler: %v", err)
	}
	dashboardHandler, err := dashboard.NewHandler(equipmentSvc, alertSvc, maintenanceSvc, logger)
	if err != nil {
		logger.Fatalf("dashboard handler: %v", err)
	}
	authHandler, err := auth.NewHandler(authSvc, logger)
	if err != nil {
		logger.Fatalf("auth handler: %v", err)
	}

	equipmentHandler.Register(router)
	alertHandler.Register(router)
	maintenanceHandler.Register(router)
	sensorHandler.Register(router)
	dashboardHandler.Register(router)
	authHandler.Register(router)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	policy := auth.NewDefaultPolicy(
		[]string{"/healthz", "/metrics", "/api/v1/auth/login"},
		nil,
	)
	authMiddleware := auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), policy)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.Server.AllowedOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	handler := corsHandler.Handler(authMiddleware.Wrap(loggingMiddleware(router, logger)))

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler,
	}

	go func() {
		logger.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func loggingMiddleware(next http.Handler, logger logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		metrics.ObserveHTTP(r.Method, strconv.Itoa(resp.status), elapsed)
		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   resp.status,
			"duration": elapsed.String(),
		}).Info("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
