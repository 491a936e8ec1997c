package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/appetiteclub/tabpos/internal/mongo"
	"github.com/appetiteclub/tabpos/internal/pos"
	"github.com/appetiteclub/tabpos/pkg"
)

const (
	appNamespace = "TABPOS"
	appName      = "tabpos"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	repos := pos.Repos{
		OrderRepo:    mongo.NewOrderRepo(db),
		TableRepo:    mongo.NewTableRepo(db),
		MenuItemRepo: mongo.NewMenuItemRepo(db),
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	registry := pos.NewTableRegistry(repos.TableRepo, repos.OrderRepo, pub, logger)
	catalog := pos.NewMenuCatalog(repos.MenuItemRepo, logger)

	warmHooks := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := registry.Warm(ctx); err != nil {
				return err
			}
			return catalog.Warm(ctx)
		},
	}

	adminEdits := config.GetStringOrDef("policy.admin_edits", "true") == "true"
	policy := pos.NewPermissionPolicy(adminEdits)

	service := pos.NewOrderService(pos.OrderServiceDeps{
		Repos:     repos,
		Registry:  registry,
		Catalog:   catalog,
		Policy:    policy,
		Publisher: pub,
	}, config, logger)

	handler := pos.NewHandler(service, config, logger)

	// Setup demo seeding if enabled
	demoEnabled, _ := config.GetString("seeding.demo")
	var seedHooks apt.LifecycleHooks
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled")
		seedHooks = apt.LifecycleHooks{
			OnStart: pos.DemoSeedingFunc(seedCtx, repos, db, logger),
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		}
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})

	// Defense-in-depth: restrict to internal networks only.
	// This complements (does not replace) network policies at the infrastructure level.
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		publisherLifecycle,
		warmHooks,
	}
	if demoEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
