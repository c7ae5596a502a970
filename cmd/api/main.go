package main

import (
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/usecase/auth"
	"app/internal/ws"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newJWTIssuer(secret string) *jwtIssuer {
	//アクセストークン
	return &jwtIssuer{
		secret:    []byte(secret),
		accessTTL: 24 * time.Hour,
	}
}

func (i *jwtIssuer) Issue(userID string, role model.Role, city model.City, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"city": string(city),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envはローカル開発用。無ければ環境変数だけで動く
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var log *zap.Logger
	if cfg.GoEnv == "dev" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.DeliveryPartner{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.OrderCounter{},
	); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成

	userRepo := infraRepo.NewUserRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	partnerRepo := infraRepo.NewDeliveryPartnerGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := newJWTIssuer(cfg.JWTSecret)

	//WebSocket hub + 配信
	hub := ws.NewHub(log)
	notifier := ws.NewOrderNotifier(hub, log)

	//Usecase生成
	registerUC := auth.NewRegisterUsecase(txManager, hasher, idGen, clock)
	loginUC := auth.NewLoginUsecase(userRepo, customerRepo, partnerRepo, verifier, issuer, clock)
	orderUC := usecase.NewOrderUsecase(txManager, notifier, idGen, clock, usecase.FeePolicy{
		DeliveryFee:           cfg.DeliveryFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
	})

	//Handler生成
	authH := handler.NewAuthHandler(registerUC, loginUC)
	orderH := handler.NewOrderHandler(orderUC)
	wsH := ws.NewHandler(hub, cfg, log)

	//Server起動
	e := server.New(cfg, authH, orderH, wsH)
	log.Info("server starting", zap.String("port", cfg.Port))
	if err := server.Start(e, cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
