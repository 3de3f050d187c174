// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/lowfodlabs/fodsync/internal/config"
	"github.com/lowfodlabs/fodsync/internal/infrastructure"
	"github.com/lowfodlabs/fodsync/pkg/middleware"
	"github.com/lowfodlabs/fodsync/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain exposes the orchestrator so the server can start its
// sync loops once infrastructure is up.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, domain, nil
}
