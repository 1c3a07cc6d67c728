package cmd

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/cache"
	"storefront/config"
	"storefront/database"
	"storefront/services"
	"storefront/telegram"
	"storefront/utils"
)

// app is the wired service graph shared by the commands.
type app struct {
	db       *sqlx.DB
	cache    cache.Cache
	closers  []func() error
	auth     *services.AuthService
	users    *services.UserService
	products *services.ProductService
	cats     *services.CategoryService
	orders   *services.OrderService
}

func openCache(cfg *config.Config) (cache.Cache, func() error) {
	if cfg.RedisURL == "" {
		log.Printf("REDIS_URL is empty, caching disabled")
		return cache.Nop{}, func() error { return nil }
	}
	r, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL, caching disabled: %v", err)
		return cache.Nop{}, func() error { return nil }
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		log.Printf("Warning: redis not reachable yet: %v", err)
	}
	return r, r.Close
}

func newApp(cfg *config.Config, publisher services.OrderEventPublisher) (*app, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	c, closeCache := openCache(cfg)

	users := services.NewUserService(db, c)
	products := services.NewProductService(db, c, cfg.DefaultCurrency)
	validator := telegram.NewValidator(cfg.TelegramBotToken, cfg.InitDataMaxAge)
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.AdminTokenTTL)

	a := &app{
		db:       db,
		cache:    c,
		closers:  []func() error{closeCache, db.Close},
		auth:     services.NewAuthService(db, users, validator, tokens, cfg.TelegramBotUsername),
		users:    users,
		products: products,
		cats:     services.NewCategoryService(db, c),
	}
	a.orders = services.NewOrderService(db, users, products, services.NewOrderNumbers(c, nil), publisher,
		services.OrderConfig{
			TaxRate:           cfg.DefaultTaxRate,
			Currency:          cfg.DefaultCurrency,
			PaymentCheckDelay: cfg.PaymentCheckDelay,
		})
	return a, nil
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Printf("Close failed: %v", err)
		}
	}
}
