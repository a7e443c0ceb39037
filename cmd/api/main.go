package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "blolend/internal/adapter/http"
	"blolend/internal/adapter/middleware"
	"blolend/internal/adapter/outbox"
	"blolend/internal/adapter/repository/mysql"
	"blolend/internal/config"
	creditDomain "blolend/internal/domain/credit"
	eventDomain "blolend/internal/domain/event"
	loanDomain "blolend/internal/domain/loan"
	repDomain "blolend/internal/domain/reputation"
	reqDomain "blolend/internal/domain/request"
	walletDomain "blolend/internal/domain/wallet"
	"blolend/internal/infrastructure/cache"
	"blolend/internal/infrastructure/db"
	credituc "blolend/internal/usecase/credit"
	loanuc "blolend/internal/usecase/loan"
	reputationuc "blolend/internal/usecase/reputation"
	requestuc "blolend/internal/usecase/request"
	walletuc "blolend/internal/usecase/wallet"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal(err)
	}
	if err := gdb.AutoMigrate(
		&reqDomain.FundingRequest{},
		&reqDomain.Contribution{},
		&loanDomain.Loan{},
		&loanDomain.Lender{},
		&creditDomain.Account{},
		&walletDomain.Account{},
		&repDomain.Score{},
		&eventDomain.Event{},
	); err != nil {
		log.Fatal(err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	requests := mysql.NewRequestRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	credits := mysql.NewCreditRepository(gdb)
	wallets := mysql.NewWalletRepository(gdb)
	reputation := mysql.NewReputationRepository(gdb)
	events := mysql.NewEventRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	registry := requestuc.NewUsecase(requests, uow)
	ledger := loanuc.NewUsecase(loans, registry, uow)
	creditUC := credituc.NewUsecase(credits, uow)
	walletUC := walletuc.NewUsecase(wallets, uow)
	reputationUC := reputationuc.NewUsecase(reputation)

	h := httpadp.NewHandler()
	requestH := httpadp.NewRequestHandler(registry, ledger)
	loanH := httpadp.NewLoanHandler(ledger)
	accountH := httpadp.NewAccountHandler(walletUC, creditUC, reputationUC)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	idemp := middleware.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)
	auth := middleware.RequireAccount()

	// reads
	e.GET("/health", h.Health)
	e.GET("/wallet/:account", accountH.WalletBalance)
	e.GET("/credits/:account", accountH.CreditBalance)
	e.GET("/reputation/:account", accountH.Reputation)
	e.GET("/requests/:id", requestH.Get)
	e.GET("/requests/:id/loan", requestH.Loan)
	e.GET("/requests/:id/contributions/:lender", requestH.HasContribution)
	e.GET("/loans/count", loanH.Count)
	e.GET("/loans/:id", loanH.Get)
	e.GET("/loans/:id/lenders", loanH.Lenders)

	// mutations: authenticated caller + idempotency
	m := e.Group("", auth, idemp)
	m.POST("/wallet/deposit", accountH.Deposit)
	m.POST("/credits/exchange", accountH.Exchange)
	m.POST("/requests", requestH.Create)
	m.POST("/requests/:id/fund", requestH.Fund)
	m.POST("/requests/:id/withdraw", requestH.Withdraw)
	m.POST("/loans/:id/withdraw", loanH.Withdraw)
	m.POST("/loans/:id/repay", loanH.Repay)

	if cfg.DeadlineOverrideEnabled {
		log.Println("deadline override route enabled (test deployments only)")
		m.PUT("/admin/loans/:id/deadline", loanH.SetDeadline)
	}

	dispatcher := outbox.NewDispatcher(events, rdb, cfg.EventChannel, time.Duration(cfg.EventPollSecs)*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
