package app

import (
	"context"
	"database/sql"
	"fmt"

	"shopapp/internal/cart"
	"shopapp/internal/catalog"
	"shopapp/internal/checkout"
	"shopapp/internal/config"
	"shopapp/internal/db"
	"shopapp/internal/favorites"
	"shopapp/internal/listing"
	"shopapp/internal/logger"
	"shopapp/internal/persist"
	"shopapp/internal/stock"

	"go.uber.org/zap"
)

// Deps overrides the collaborators New would otherwise build from config.
type Deps struct {
	Catalog catalog.Client
	KV      persist.KV
}

// App owns every store and workflow for the lifetime of the process.
type App struct {
	Catalog   catalog.Client
	Cart      *cart.Store
	Favorites *favorites.Store
	Listing   *listing.Workflow
	Stock     *stock.Reconciler
	Checkout  checkout.Service
	Persister *persist.Persister

	db *sql.DB
}

// New wires the app. The cart is rehydrated before anything else can see it.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "app"))

	client := deps.Catalog
	if client == nil {
		client = catalog.NewClient(catalog.Options{
			BaseURL:          cfg.CatalogBaseURL,
			Timeout:          cfg.CatalogTimeout,
			RPS:              cfg.CatalogRPS,
			Burst:            cfg.CatalogBurst,
			CacheSize:        cfg.CatalogCacheSize,
			CacheTTL:         cfg.CatalogCacheTTL,
			StockConcurrency: cfg.StockCheckConcurrency,
		})
	}

	a := &App{Catalog: client}

	kv := deps.KV
	if kv == nil {
		var err error
		kv, err = a.openKV(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	a.Cart = cart.NewStore()
	a.Persister = persist.NewPersister(kv)
	if err := a.Persister.Restore(ctx, a.Cart); err != nil {
		a.closeDB()
		return nil, fmt.Errorf("restore cart: %w", err)
	}
	a.Cart.Subscribe(a.Persister.Observe)
	a.Persister.Start(context.WithoutCancel(ctx))

	a.Favorites = favorites.NewStore()
	a.Listing = listing.NewWorkflow(client, cfg.PageSize)
	a.Stock = stock.NewReconciler(a.Cart, client)
	a.Checkout = checkout.NewService(a.Cart, a.Stock)

	log.Info("app ready",
		zap.String("store_driver", cfg.StoreDriver),
		zap.Int("cart_lines", a.Cart.Len()),
	)
	return a, nil
}

// Start begins loading the product list. Fetches stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.Listing.Start(ctx)
}

// Close cancels in-flight fetches, waits for them while ctx allows and writes
// the final cart.
func (a *App) Close(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "app"))

	if err := a.Listing.Shutdown(ctx); err != nil {
		log.Warn("listing fetches still running at shutdown", zap.Error(err))
	}

	err := a.Persister.Close(ctx)
	if err != nil {
		log.Error("final cart flush failed", zap.Error(err))
	}
	a.closeDB()
	return err
}

func (a *App) openKV(ctx context.Context, cfg *config.Config) (persist.KV, error) {
	if cfg.StoreDriver == config.DriverMemory {
		return persist.NewMemoryStore(), nil
	}

	conn, err := db.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn, db.MigrateUp); err != nil {
		conn.Close()
		return nil, err
	}
	a.db = conn
	return persist.NewSQLStore(conn), nil
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		logger.L().Warn("closing database", zap.Error(err))
	}
	a.db = nil
}
