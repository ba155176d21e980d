package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sanvicente/scheduling-api/internal/config"
	"github.com/sanvicente/scheduling-api/internal/email"
	"github.com/sanvicente/scheduling-api/internal/handler"
	appointmentHandler "github.com/sanvicente/scheduling-api/internal/handler/appointment"
	doctorHandler "github.com/sanvicente/scheduling-api/internal/handler/doctor"
	patientHandler "github.com/sanvicente/scheduling-api/internal/handler/patient"
	"github.com/sanvicente/scheduling-api/internal/middleware"
	"github.com/sanvicente/scheduling-api/internal/repository/postgres"
	"github.com/sanvicente/scheduling-api/internal/router"
	"github.com/sanvicente/scheduling-api/internal/service/directory"
	"github.com/sanvicente/scheduling-api/internal/service/scheduling"
	"github.com/sanvicente/scheduling-api/pkg/logger"
	"github.com/sanvicente/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	patientRepo := postgres.NewPatientRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	historyRepo := postgres.NewEmailHistoryRepository(db)

	// Collaborators
	notifier := email.NewSMTPService(cfg.SMTP)
	appMetrics := metrics.NewMetrics("scheduling", prometheus.DefaultRegisterer)

	// Services
	schedulingSvc := scheduling.NewService(
		appointmentRepo, patientRepo, doctorRepo, historyRepo,
		notifier, appMetrics,
		scheduling.WithNotifierTimeout(cfg.Notifier.Timeout),
	)
	directorySvc := directory.NewService(patientRepo, doctorRepo, appMetrics)

	// Handlers
	h := handler.NewHandler()
	r := router.NewRouter(
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
		prometheus.DefaultRegisterer,
		h,
		appointmentHandler.NewHandler(schedulingSvc),
		patientHandler.NewHandler(directorySvc),
		doctorHandler.NewHandler(directorySvc),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
