package main

import (
	"github.com/takumin/shiftboard/internal/config"
	"github.com/takumin/shiftboard/internal/handlers"
	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/internal/utils"
	"github.com/takumin/shiftboard/pkg/logger"
)

// appServices holds the initialized services and handlers the router needs.
type appServices struct {
	auditService      *services.AuditService
	authHandler       *handlers.AuthHandler
	scheduleHandler   *handlers.ScheduleHandler
	permissionHandler *handlers.PermissionHandler
	teamHandler       *handlers.TeamHandler
	personHandler     *handlers.PersonHandler
	shiftHandler      *handlers.ShiftHandler
	auditLogHandler   *handlers.AuditLogHandler
	healthHandler     *handlers.HealthHandler
}

// bootstrap initializes database, migrations, schedulers and handlers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.Schedule.SeedDemoData {
		if err := models.SeedDemoData(); err != nil {
			logger.Warn().Err(err).Msg("Failed to seed demo data")
		}
	}

	db := models.GetDB()

	services.InitAuditLogger(db)

	auditService := services.NewAuditService(db)
	if err := auditService.StartCleanupScheduler(cfg.Log.RetentionDays); err != nil {
		logger.Warn().Err(err).Msg("Failed to start audit cleanup scheduler")
	}

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		auditService:      auditService,
		authHandler:       authHandler,
		scheduleHandler:   handlers.NewScheduleHandler(db, cfg),
		permissionHandler: handlers.NewPermissionHandler(db),
		teamHandler:       handlers.NewTeamHandler(db),
		personHandler:     handlers.NewPersonHandler(db),
		shiftHandler:      handlers.NewShiftHandler(db),
		auditLogHandler:   handlers.NewAuditLogHandler(db),
		healthHandler:     handlers.NewHealthHandler(),
	}
}

// shutdown stops background schedulers.
func (s *appServices) shutdown() {
	s.auditService.StopCleanupScheduler()
	logger.Info().Msg("Schedulers stopped")
}
