package api

import (
	"net/http"

	"github.com/lowfodlabs/fodsync/internal/sync"
	"github.com/lowfodlabs/fodsync/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Records.Handler().Routes(),
		sync.NewHandler(domain.Orchestrator, runtime.Logger).Routes(),
	)
}
