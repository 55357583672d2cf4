package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "desklend-backend/internal/adapter/http"
	mw "desklend-backend/internal/adapter/middleware"
	"desklend-backend/internal/adapter/repository/mysql"
	"desklend-backend/internal/config"
	deskDomain "desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/extern"
	loanDomain "desklend-backend/internal/domain/loan"
	"desklend-backend/internal/infrastructure/cache"
	"desklend-backend/internal/infrastructure/db"
	"desklend-backend/internal/infrastructure/memledger"
	deskuc "desklend-backend/internal/usecase/desk"
	loanuc "desklend-backend/internal/usecase/loan"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		logger.Fatal("mysql connect", zap.Error(err))
	}
	if err := gdb.AutoMigrate(
		&deskDomain.LendingDesk{},
		&deskDomain.LoanConfig{},
		&loanDomain.Loan{},
	); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}

	// Out-of-scope collaborators: in-memory fixtures until real custody and
	// token services are wired in.
	ledger := memledger.NewAssetLedger()
	ext := extern.Collaborators{
		Assets:   ledger,
		Custody:  memledger.NewCustody(),
		Claims:   memledger.NewClaims(),
		Gate:     memledger.NewGate(),
		Treasury: memledger.NewTreasury(ledger, cfg.TreasuryAccount),
	}

	deskRepo := mysql.NewDeskRepository(gdb)
	loanRepo := mysql.NewLoanRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	deskUC := deskuc.NewUsecase(deskRepo, uow, ext, logger)
	loanUC := loanuc.NewUsecase(loanRepo, uow, ext, cfg.OriginationFeeBps, logger)

	h := httpadp.NewHandler()
	deskH := httpadp.NewDeskHandler(deskUC)
	loanH := httpadp.NewLoanHandler(loanUC)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	idemp := mw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	e.GET("/health", h.Health)

	desks := e.Group("/desks", idemp)
	desks.POST("", deskH.CreateDesk)
	desks.GET("/:desk_id", deskH.GetDesk)
	desks.POST("/:desk_id/deposit", deskH.Deposit)
	desks.POST("/:desk_id/withdraw", deskH.Withdraw)
	desks.PATCH("/:desk_id/state", deskH.SetState)
	desks.DELETE("/:desk_id", deskH.Dissolve)
	desks.PUT("/:desk_id/loan-configs", deskH.PutLoanConfigs)
	desks.GET("/:desk_id/loan-configs", deskH.ListLoanConfigs)
	desks.DELETE("/:desk_id/loan-configs/:collection_id", deskH.DeleteLoanConfig)

	loans := e.Group("/loans", idemp)
	loans.POST("", loanH.Originate)
	loans.GET("/:loan_id", loanH.GetLoan)
	loans.GET("/:loan_id/amount-due", loanH.AmountDue)
	loans.POST("/:loan_id/payments", loanH.MakePayment)
	loans.POST("/:loan_id/liquidate", loanH.Liquidate)

	addr := ":" + cfg.AppPort
	logger.Info("listening", zap.String("addr", addr))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
