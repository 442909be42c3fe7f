package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"go-grocery/controllers"
	"go-grocery/messaging"
	"go-grocery/middleware"
	"go-grocery/routes"
	"go-grocery/services"
	"go-grocery/store"
	"go-grocery/store/mongodb"
	"go-grocery/utils"
)

func main() {
	seed := flag.Bool("seed", false, "replace the catalog with the sample products and exit")
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *seed); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *utils.Config, logger *zap.Logger, seed bool) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	ctx := context.Background()

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("disconnecting from MongoDB", zap.Error(err))
		}
	}()
	db := client.Database(cfg.MongoDatabase)

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	products := mongodb.NewProductStore(db)
	carts := mongodb.NewCartStore(db)
	orders := mongodb.NewOrderStore(db)
	users := mongodb.NewUserStore(db)

	var scope store.TxScope = store.DirectScope{}
	if cfg.MongoTxn {
		scope = mongodb.NewTxScope(client)
	} else {
		logger.Warn("MongoDB transactions disabled, checkout relies on compensation only")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	prices := services.PriceCalculator(cfg.Pricing)

	catalog := services.NewCatalogService(products)
	userService := services.NewUserService(users, tokens)

	if seed {
		return seedCatalog(ctx, logger, products, userService)
	}

	var events services.OrderEvents = messaging.Noop{}
	if cfg.RabbitMQURL != "" {
		pool, err := messaging.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.ChannelPoolSize, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		events = messaging.NewPublisher(pool, cfg.RabbitMQQueue, logger)
	} else {
		logger.Info("RABBITMQ_URL not set, order events are not published")
	}

	emailService := utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender, logger)

	orderService := services.NewOrderService(services.OrderServiceDeps{
		Scope:    scope,
		Carts:    carts,
		Products: products,
		Orders:   orders,
		Users:    users,
		Prices:   prices,
		Events:   events,
		Notifier: emailService,
		Logger:   logger,
	})
	defer orderService.Wait()

	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Recovery(logger), middleware.RequestLogger(logger), middleware.Timeout(cfg.RequestTimeout))
	routes.RegisterRoutes(router, tokens, routes.Controllers{
		Users:    controllers.NewUserController(userService, logger),
		Products: controllers.NewProductController(catalog, logger),
		Carts:    controllers.NewCartController(services.NewCartService(carts, products, prices), logger),
		Orders:   controllers.NewOrderController(orderService, logger),
		Admin: controllers.NewAdminController(
			services.NewStatsService(users, products, orders),
			services.NewAdminService(scope, users, carts, orders),
			logger),
		Health: controllers.Health(func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
