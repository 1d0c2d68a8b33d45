package main

import (
	"log"
	"strings"

	"fitness_portal_backend/internal/database"
	"fitness_portal_backend/internal/middleware"
	"fitness_portal_backend/internal/router"
	"fitness_portal_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	utils.InitLogger()
	utils.InitJWT(utils.Getenv("JWT_SECRET", ""))

	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "fitness_portal")
	dbPassword := utils.Getenv("DB_PASSWORD", "fitness_portal")
	dbName := utils.Getenv("DB_NAME", "fitness_portal_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")

	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbHost, "name": dbName})

	if utils.Getenv("AUTO_MIGRATE", "false") == "true" {
		databaseURL := database.DatabaseURL(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)
		if err := database.RunMigrations(databaseURL, utils.Getenv("MIGRATIONS_PATH", "migrations")); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		utils.LogInfo("Migrations applied")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())
	engine.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewRateLimiter(
		float64(utils.GetenvInt("RATE_LIMIT_RPS", 20)),
		utils.GetenvInt("RATE_LIMIT_BURST", 40),
	)
	engine.Use(rateLimiter.Middleware())

	corsOrigins := utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	config := cors.DefaultConfig()
	config.AllowOrigins = strings.Split(corsOrigins, ",")
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	router.Setup(engine, database.GetDB())

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})
	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
