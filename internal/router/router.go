package router

import (
	"database/sql"
	"net/http"
	"strings"

	"fitness_portal_backend/internal/handlers"
	"fitness_portal_backend/internal/middleware"
	"fitness_portal_backend/internal/repositories"
	"fitness_portal_backend/internal/services"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup wires repositories, services and handlers and registers every route
// group under /api/v1.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	pointsRepo := repositories.NewPointsRepository(db)
	checkinRepo := repositories.NewCheckinRepository(db)
	designRepo := repositories.NewCardDesignRepository(db)
	cardRepo := repositories.NewWalletCardRepository(db)
	supportRepo := repositories.NewSupportRepository(db)
	statsRepo := repositories.NewStatsRepository(db)

	// Configuration
	frontendURL := utils.Getenv("FRONTEND_URL", "http://localhost:3000")
	backendURL := utils.Getenv("BACKEND_BASE_URL", "http://localhost:8080")
	authCfg := services.AuthConfig{
		FrontendURL:     frontendURL,
		BackendBaseURL:  backendURL,
		AdminSetupToken: utils.Getenv("ADMIN_SETUP_TOKEN", ""),
	}
	emailCfg := services.EmailConfig{
		Host:     utils.Getenv("SMTP_HOST", ""),
		Port:     utils.GetenvInt("SMTP_PORT", 587),
		Username: utils.Getenv("SMTP_USER", ""),
		Password: utils.Getenv("SMTP_PASSWORD", ""),
		From:     utils.Getenv("SMTP_FROM", ""),
	}
	walletCfg := services.WalletConfig{
		ApplePassTypeID:      utils.Getenv("APPLE_PASS_TYPE_ID", ""),
		AppleTeamID:          utils.Getenv("APPLE_TEAM_ID", ""),
		AppleOrgName:         utils.Getenv("APPLE_ORG_NAME", ""),
		GoogleIssuerID:       utils.Getenv("GOOGLE_WALLET_ISSUER_ID", ""),
		GoogleServiceAccount: utils.Getenv("GOOGLE_WALLET_SERVICE_ACCOUNT_KEY", ""),
		GoogleAllowedOrigins: splitOrigins(utils.Getenv("GOOGLE_WALLET_ORIGINS", frontendURL)),
	}

	// Services
	emailService := services.NewEmailService(emailCfg)
	authService := services.NewAuthService(userRepo, memberRepo, emailService, db, authCfg)
	checkinService := services.NewCheckinService(memberRepo, pointsRepo, checkinRepo, db, utils.GetenvInt("CHECKIN_POINTS", services.DefaultCheckinPoints))
	memberService := services.NewMemberService(memberRepo, userRepo, pointsRepo, checkinRepo, cardRepo, supportRepo, db)
	designService := services.NewCardDesignService(designRepo, db)
	walletService := services.NewWalletService(walletCfg)
	cardService := services.NewWalletCardService(cardRepo, memberRepo, pointsRepo, designRepo, userRepo, walletService, emailService, db)
	supportService := services.NewSupportService(supportRepo, emailService, db, utils.Getenv("SUPPORT_INBOX", ""))
	statsService := services.NewStatsService(statsRepo, checkinRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, frontendURL)
	checkinHandler := handlers.NewCheckinHandler(checkinService)
	memberHandler := handlers.NewMemberHandler(memberService)
	designHandler := handlers.NewCardDesignHandler(designService)
	walletHandler := handlers.NewWalletHandler(cardService)
	cardAdminHandler := handlers.NewWalletCardAdminHandler(cardService)
	supportHandler := handlers.NewSupportHandler(supportService)
	statsHandler := handlers.NewStatsHandler(statsService)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": "fitness-portal-backend"})
	})

	apiV1 := engine.Group("/api/v1")

	apiV1.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	})

	SetupPublicRoutes(apiV1, authHandler, designHandler, walletHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupMemberRoutes(authenticated, authHandler, memberHandler, checkinHandler, walletHandler, supportHandler)

		admin := authenticated.Group("/admin")
		admin.Use(middleware.RoleAuthMiddleware(utils.RoleAdmin))
		SetupAdminRoutes(admin, memberHandler, checkinHandler, designHandler, cardAdminHandler, supportHandler, statsHandler)
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
