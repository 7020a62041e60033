package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eliotaldersonfsociety/texasstore-api/backend"
	"github.com/eliotaldersonfsociety/texasstore-api/catalog"
	"github.com/eliotaldersonfsociety/texasstore-api/checkout"
	"github.com/eliotaldersonfsociety/texasstore-api/controllers"
	"github.com/eliotaldersonfsociety/texasstore-api/initializers"
	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/eliotaldersonfsociety/texasstore-api/paypal"
	"github.com/eliotaldersonfsociety/texasstore-api/routes"
	"github.com/eliotaldersonfsociety/texasstore-api/storefront"
	"github.com/eliotaldersonfsociety/texasstore-api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	logger := log.New(os.Stdout, "", log.Ldate|log.Ltime|log.Lshortfile)
	cfg := initializers.LoadConfig()

	store, closeStore, err := initializers.NewStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to set up client storage: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Printf("Error closing client storage: %v", err)
		}
	}()

	catalogClient := catalog.NewClient(cfg.CatalogURL, cfg.CatalogKey, cfg.CatalogSecret, cfg.HTTPTimeout, logger)
	backendClient := backend.NewClient(cfg.BackendURL, cfg.HTTPTimeout, logger)
	paypalClient := paypal.NewClient(cfg.PayPalURL, cfg.PayPalClientID, cfg.PayPalSecret, cfg.HTTPTimeout, logger)

	var notifier checkout.Notifier
	mailer := utils.NewMailer(utils.MailConfig{
		From:        cfg.FromEmail,
		Password:    cfg.FromEmailPassword,
		SMTPHost:    cfg.FromEmailSMTP,
		SMTPAddress: cfg.SMTPAddress,
	})
	if mailer.Enabled() {
		notifier = mailer
	} else {
		logger.Println("SMTP not configured; purchase confirmation emails are disabled.")
	}

	var uploader controllers.AvatarUploader
	if cfg.AWSBucket != "" {
		s3Uploader, err := utils.NewS3AvatarUploader(context.Background(), cfg.AWSBucket)
		if err != nil {
			logger.Printf("Avatar uploads disabled: %v", err)
		} else {
			uploader = s3Uploader
		}
	}

	registry := storefront.NewRegistry(storefront.Deps{
		Storage:     store,
		Backend:     backendClient,
		Gateway:     paypalClient,
		Search:      catalogClient.SearchProducts,
		Checkout:    checkout.Config{Currency: cfg.PayPalCurrency, Notifier: notifier},
		SearchDelay: cfg.SearchDebounce,
	}, logger)

	gin.SetMode(cfg.GinMode)
	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	server.Use(middlewares.ClientIdentity(registry, cfg.GinMode == gin.ReleaseMode))

	c := controllers.New(catalogClient, backendClient, uploader, logger)
	routes.DefaultRoutes(server)
	routes.AuthRoutes(server, c)
	routes.ProductRoutes(server, c)
	routes.CartRoutes(server, c)
	routes.OrderRoutes(server, c)
	routes.AdminRoutes(server, c)

	app := &application{
		logger:   logger,
		registry: registry,
		idleTTL:  cfg.ClientIdleTTL,
		server: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      server,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			ErrorLog:     logger,
		},
		shutdownChan: make(chan struct{}),
		sweeperDone:  make(chan struct{}),
	}

	go app.runSweeper()
	app.serve()
}

type application struct {
	logger       *log.Logger
	registry     *storefront.Registry
	idleTTL      time.Duration
	server       *http.Server
	shutdownChan chan struct{}
	sweeperDone  chan struct{}
}

func (app *application) serve() {
	app.logger.Printf("Starting server on %s", app.server.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		app.logger.Printf("Server error: %v", err)
	case sig := <-quit:
		app.logger.Printf("Received signal %s. Shutting down server...", sig)
	}

	close(app.shutdownChan)
	<-app.sweeperDone

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Printf("Graceful server shutdown failed: %v", err)
	} else {
		app.logger.Println("Server gracefully stopped.")
	}
}

// runSweeper evicts idle clients from memory. Their state stays in storage.
func (app *application) runSweeper() {
	defer close(app.sweeperDone)

	if app.idleTTL <= 0 {
		app.idleTTL = 30 * time.Minute
	}

	ticker := time.NewTicker(app.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := app.registry.Sweep(app.idleTTL); n > 0 {
				app.logger.Printf("Sweeper: dropped %d idle clients, %d active", n, app.registry.Len())
			}
		case <-app.shutdownChan:
			return
		}
	}
}
