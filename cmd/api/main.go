package main

import (
	"context"
	"time"

	"lumina/internal/config"
	"lumina/internal/handler"
	"lumina/internal/infra/cartstore"
	"lumina/internal/infra/db"
	"lumina/internal/infra/geocoding"
	infraRepo "lumina/internal/infra/repository"
	"lumina/internal/logger"
	"lumina/internal/server"
	"lumina/internal/usecase"
	"lumina/internal/validator"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.IsDev())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("db migrate failed", zap.Error(err))
	}

	//カート（Redis）
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis not reachable", zap.Error(err))
	}
	cancel()
	carts := cartstore.NewRedisStore(rdb, cfg.CartTTL)

	//住所検索（Nominatim）
	geocoder := geocoding.NewClient(geocoding.Options{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderUserAgent,
		RPS:       cfg.GeocoderRPS,
		Timeout:   cfg.GeocoderTimeout,
	})

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	profileRepo := infraRepo.NewProfileGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(carts, productRepo)
	addressUC := usecase.NewAddressUsecase(geocoder, log)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, productRepo)
	checkoutUC := usecase.NewCheckoutUsecase(
		carts,
		orderUC,
		profileRepo,
		validator.NewCheckoutValidator(),
		&uuidGenerator{},
		usecase.CheckoutConfig{
			Timeout:     cfg.CheckoutTimeout,
			ShippingFee: cfg.ShippingFee,
			Discount:    cfg.Discount,
		},
		log,
	)
	profileUC := usecase.NewProfileUsecase(profileRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, profileRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	e := server.NewRouter(cfg, log, server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Address:      handler.NewAddressHandler(addressUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC),
		Profile:      handler.NewProfileHandler(profileUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, auditUC),
	})

	//Server起動
	if err := server.Start(e, ":"+cfg.Port, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
