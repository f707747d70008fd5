// Package httpserver manages server creation and api routing.
package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger/internal/accountdelivery"
	"github.com/go-petr/ledger/internal/accountrepo"
	"github.com/go-petr/ledger/internal/accountservice"
	"github.com/go-petr/ledger/internal/middleware"
	"github.com/go-petr/ledger/pkg/configpkg"
)

// Server holds the record store, handlers router and configuration.
type Server struct {
	Repo   *accountrepo.RepoFile
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(repo *accountrepo.RepoFile, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	accountService := accountservice.New(repo, accountservice.WithMaxIDAttempts(config.MaxIDAttempts))
	accountHandler := accountdelivery.NewHandler(accountService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())
	engine.Use(middleware.Metrics())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.POST("/accounts", accountHandler.Create)

	authRoutes := engine.Group("/").Use(middleware.BasicAuth())

	authRoutes.GET("/accounts/me", accountHandler.Get)
	authRoutes.POST("/accounts/me/deposit", accountHandler.Deposit)
	authRoutes.POST("/accounts/me/withdraw", accountHandler.Withdraw)
	authRoutes.DELETE("/accounts/me", accountHandler.Delete)

	authRoutes.POST("/transfers", accountHandler.Transfer)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("category", accountdelivery.ValidCategory)
		if err != nil {
			return nil, errors.New("cannot register category validator")
		}
	}

	server := &Server{
		Repo:   repo,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
