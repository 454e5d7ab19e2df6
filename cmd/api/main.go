package main

import (
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/TGOSS1984/ashen-emporium/internal/cart"
	"github.com/TGOSS1984/ashen-emporium/internal/config"
	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
	"github.com/TGOSS1984/ashen-emporium/internal/events"
	"github.com/TGOSS1984/ashen-emporium/internal/gateway"
	"github.com/TGOSS1984/ashen-emporium/internal/handler"
	"github.com/TGOSS1984/ashen-emporium/internal/infra/db"
	infraRepo "github.com/TGOSS1984/ashen-emporium/internal/infra/repository"
	"github.com/TGOSS1984/ashen-emporium/internal/logger"
	"github.com/TGOSS1984/ashen-emporium/internal/server"
	"github.com/TGOSS1984/ashen-emporium/internal/usecase"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.GoEnv)
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockMovement{},
		&model.AuditLog{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//セッションカート（Redis）
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	cartStore := cart.NewRedisStore(rdb)

	//注文イベント。ブローカー未設定ならnoop。
	var pub events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		pub = kp
	}

	//決済ゲートウェイ（Stripe互換）
	gw := gateway.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.GatewayTimeout)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cartStore, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, cartStore, pub)
	paymentUC := usecase.NewPaymentUsecase(orderRepo, orderItemRepo, gw, cfg.Currency, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	webhookUC := usecase.NewWebhookUsecase(txManager, gw, pub)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo, pub)

	//Handler生成
	h := server.Handlers{
		Products:      handler.NewProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Orders:        handler.NewOrderHandler(orderUC),
		Payments:      handler.NewPaymentHandler(paymentUC, webhookUC),
		AdminOrders:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProducts: handler.NewAdminProductHandler(productUC),
	}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	e := server.New(h)
	if err := server.Start(e, addr); err != nil {
		panic(err)
	}
}
