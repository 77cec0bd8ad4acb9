package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/config"
	v1 "github.com/clinicdesk/clinicdesk/internal/handler/v1"
	"github.com/clinicdesk/clinicdesk/internal/repository"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/clinicdesk/clinicdesk/pkg/auth"
	"github.com/clinicdesk/clinicdesk/pkg/database"
	"github.com/clinicdesk/clinicdesk/pkg/logger"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
	"github.com/clinicdesk/clinicdesk/pkg/tracer"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting clinicdesk api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	collector := metrics.NewCollector("clinicdesk", prometheus.DefaultRegisterer)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	if sqlDB, err := db.DB(); err == nil {
		go func() {
			for range time.Tick(15 * time.Second) {
				collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}()
	}

	apptRepo := repository.NewAppointmentRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	userRepo := repository.NewUserRepository(db)
	contentRepo := repository.NewContentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	apptSvc := service.NewAppointmentService(apptRepo, doctorRepo, patientRepo, auditSvc, collector, log)
	ratingSvc := service.NewRatingService(apptRepo, doctorRepo, auditSvc, collector, log)
	doctorSvc := service.NewDoctorService(doctorRepo, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, log)
	contentSvc := service.NewContentService(contentRepo, auditSvc, log)
	authSvc := service.NewAuthService(userRepo, patientRepo, jwtManager, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:      cfg,
		Logger:      log,
		Collector:   collector,
		JWTManager:  jwtManager,
		Auth:        v1.NewAuthHandler(authSvc),
		Appointment: v1.NewAppointmentHandler(apptSvc, ratingSvc),
		Doctor:      v1.NewDoctorHandler(doctorSvc),
		Patient:     v1.NewPatientHandler(patientSvc),
		Content:     v1.NewContentHandler(contentSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background safety net: mark past-due scheduled appointments missed even
	// when no doctor list read triggers the lazy sweep.
	if cfg.Sweep.Enabled {
		go runSweepLoop(ctx, apptSvc, ratingSvc, cfg.Sweep, log)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}

	auditSvc.Shutdown()

	return nil
}

func runSweepLoop(ctx context.Context, apptSvc *service.AppointmentService, ratingSvc *service.RatingService, cfg config.SweepConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var repairCh <-chan time.Time
	if cfg.RepairInterval > 0 {
		repairTicker := time.NewTicker(cfg.RepairInterval)
		defer repairTicker.Stop()
		repairCh = repairTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := apptSvc.SweepMissed(ctx, nil)
			if err != nil {
				log.Error("missed-appointment sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("missed-appointment sweep", zap.Int64("marked_missed", n))
			}
		case <-repairCh:
			if n, err := ratingSvc.RepairRatingSummaries(ctx); err != nil {
				log.Error("rating summary repair failed", zap.Error(err), zap.Int("repaired", n))
			}
		}
	}
}
