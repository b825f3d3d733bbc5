// Package httpserver manages server creation and api routing.
package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/accountdelivery"
	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/accountservice"
	"github.com/go-petr/pet-wallet/internal/activityrepo"
	"github.com/go-petr/pet-wallet/internal/activityservice"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/entryrepo"
	"github.com/go-petr/pet-wallet/internal/historydelivery"
	"github.com/go-petr/pet-wallet/internal/historyservice"
	"github.com/go-petr/pet-wallet/internal/identityservice"
	"github.com/go-petr/pet-wallet/internal/ledger"
	"github.com/go-petr/pet-wallet/internal/ledgerrepo"
	"github.com/go-petr/pet-wallet/internal/limitservice"
	"github.com/go-petr/pet-wallet/internal/memstore"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/internal/rechargedelivery"
	"github.com/go-petr/pet-wallet/internal/rechargeservice"
	"github.com/go-petr/pet-wallet/internal/transferdelivery"
	"github.com/go-petr/pet-wallet/internal/transferservice"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
	"github.com/go-petr/pet-wallet/pkg/web"
)

// AccountRepo is the account data access needed by the account and identity services.
type AccountRepo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	SearchByDisplayName(ctx context.Context, query string, limit int32) ([]domain.Account, error)
}

// Storage groups the data access layer the server runs on.
type Storage struct {
	DB       *sql.DB
	Ledger   ledger.Store
	Accounts AccountRepo
	Entries  historyservice.Repo
	Activity activityservice.Repo
}

// PostgresStorage returns the storage backed by the conn database.
func PostgresStorage(conn *sql.DB) Storage {
	return Storage{
		DB:       conn,
		Ledger:   ledgerrepo.NewRepoPGS(conn),
		Accounts: accountrepo.NewRepoPGS(conn),
		Entries:  entryrepo.NewRepoPGS(conn),
		Activity: activityrepo.NewRepoPGS(conn),
	}
}

// MemoryStorage returns the storage backed by the in-process store s.
func MemoryStorage(s *memstore.Store) Storage {
	return Storage{
		Ledger:   s,
		Accounts: s.Accounts(),
		Entries:  s.Entries(),
		Activity: s.Activities(),
	}
}

// Server holds storage, handlers router and configuration.
type Server struct {
	DB         *sql.DB
	Engine     *gin.Engine
	Config     configpkg.Config
	TokenMaker tokenpkg.Maker
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes. cache may
// be nil, then requests are not rate limited.
func New(storage Storage, cache *redis.Client, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	tokenMaker, err := tokenpkg.New(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	loc, err := config.Location()
	if err != nil {
		return nil, fmt.Errorf("cannot load limit timezone: %w", err)
	}

	caps, err := config.DefaultCaps()
	if err != nil {
		return nil, err
	}

	if err := web.RegisterValidators(); err != nil {
		return nil, errors.New("cannot register money validator")
	}

	retry := ledger.RetryPolicy{MaxRetries: config.MaxCommitRetries, BaseDelay: config.RetryBaseDelay}

	accountService := accountservice.New(storage.Accounts)
	identityService := identityservice.New(storage.Accounts)
	activityService := activityservice.New(storage.Activity)
	historyService := historyservice.New(storage.Entries, loc)
	limitPolicy := limitservice.New(loc, caps)

	transferService := transferservice.New(storage.Ledger, identityService, limitPolicy, retry,
		transferservice.WithActivity(activityService))
	rechargeService := rechargeservice.New(storage.Ledger, limitPolicy, retry,
		rechargeservice.WithActivity(activityService))

	accountHandler := accountdelivery.NewHandler(accountService, identityService)
	transferHandler := transferdelivery.NewHandler(transferService)
	rechargeHandler := rechargedelivery.NewHandler(rechargeService)
	historyHandler := historydelivery.NewHandler(historyService, activityService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())
	engine.Use(middleware.Device())

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts/me", accountHandler.Get)
	authRoutes.GET("/recipients", accountHandler.Recipient)

	authRoutes.GET("/entries", historyHandler.ListEntries)
	authRoutes.GET("/statistics", historyHandler.Statistics)
	authRoutes.GET("/activity", historyHandler.Activity)

	limited := engine.Group("/").
		Use(middleware.AuthMiddleware(tokenMaker)).
		Use(middleware.RateLimit(cache, config.RateLimitPerMinute))

	limited.POST("/transfers", transferHandler.Create)
	limited.POST("/recharges", rechargeHandler.Create)

	server := &Server{
		DB:         storage.DB,
		Engine:     engine,
		Config:     config,
		TokenMaker: tokenMaker,
	}

	return server, nil
}
