package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/mshawy/bookhive-auth/internal/config"       // Internal config loader
	"github.com/mshawy/bookhive-auth/internal/database"     // MySQL connection setup
	"github.com/mshawy/bookhive-auth/internal/federated"    // Google sign-in adapter
	"github.com/mshawy/bookhive-auth/internal/handler"      // HTTP handlers
	"github.com/mshawy/bookhive-auth/internal/notification" // email gateway + consumer
	"github.com/mshawy/bookhive-auth/internal/otp"          // one-time-code store
	"github.com/mshawy/bookhive-auth/internal/repository"   // account persistence
	"github.com/mshawy/bookhive-auth/internal/router"       // route registration
	"github.com/mshawy/bookhive-auth/internal/service"      // auth use cases
)

func main() {
	// Load .env if present; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}

	// The OTP store and the OAuth state keys must be shared across
	// process instances, so a reachable Redis is mandatory.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed")
	}

	accounts := repository.NewAccountRepo(db)
	otps := otp.NewStore(rdb)
	gateway := notification.NewAMQPGateway()
	issuer := service.NewTokenIssuer(cfg, accounts)
	auth := service.NewAuthService(cfg, accounts, otps, issuer, gateway)
	google := federated.NewGoogleAdapter(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	// Drain the notification queue in the background; the consumer
	// runs its own reconnect loop and never returns under normal
	// operation.
	go func() {
		if err := notification.StartEmailConsumer(); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, auth, google, rdb), cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
