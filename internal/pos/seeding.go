package pos

import (
	"context"
	"errors"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"
)

const demoSeedApplication = "tabpos_demo"

// DemoSeedingFunc wraps ApplyDemoSeeds as an OnStart lifecycle hook. Seeding
// runs in the background so startup never blocks on it.
func DemoSeedingFunc(seedCtx context.Context, repos Repos, db *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repos, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo seeding completed successfully")
			}
		}()
		return nil
	}
}

// ApplyDemoSeeds creates a small floor plan and menu so a fresh install has
// something to sell. Idempotent through the seed tracker.
func ApplyDemoSeeds(ctx context.Context, repos Repos, db *mongo.Database, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	tracker := seed.NewMongoTracker(db)
	seeds := []seed.Seed{
		{
			ID:          "2025-08-01_demo_floor_v1",
			Description: "Create demo tables",
			Run: func(ctx context.Context) error {
				return seedDemoTables(ctx, repos.TableRepo, logger)
			},
		},
		{
			ID:          "2025-08-01_demo_menu_v1",
			Description: "Create demo menu items",
			Run: func(ctx context.Context) error {
				return seedDemoMenu(ctx, repos.MenuItemRepo, logger)
			},
		},
	}

	logger.Info("Applying demo seeds")
	if err := seed.Apply(ctx, tracker, seeds, demoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo seeds applied successfully")
	return nil
}

func seedDemoTables(ctx context.Context, repo TableRepo, logger apt.Logger) error {
	for number := 1; number <= 8; number++ {
		table := NewTable(number)
		table.CreatedBy = "seed"
		table.UpdatedBy = "seed"
		table.BeforeCreate()
		if err := repo.Create(ctx, table); err != nil {
			return err
		}
	}
	logger.Info("Demo tables created", "count", 8)
	return nil
}

func seedDemoMenu(ctx context.Context, repo MenuItemRepo, logger apt.Logger) error {
	type dish struct {
		name     string
		category string
		price    float64
	}
	dishes := []dish{
		{"Classic Burger", CategoryFood, 5.00},
		{"Margherita Pizza", CategoryFood, 8.50},
		{"Caesar Salad", CategoryFood, 6.25},
		{"Fries", CategoryFood, 2.75},
		{"Iced Tea", CategoryDrink, 1.90},
		{"Espresso", CategoryDrink, 2.20},
		{"House Lemonade", CategoryDrink, 2.50},
	}

	for _, d := range dishes {
		item := NewMenuItem()
		item.Name = d.name
		item.Category = d.category
		item.Price = d.price
		item.CreatedBy = "seed"
		item.UpdatedBy = "seed"
		item.BeforeCreate()
		if err := repo.Create(ctx, item); err != nil {
			return err
		}
	}
	logger.Info("Demo menu created", "count", len(dishes))
	return nil
}
