package api

import (
	"github.com/lowfodlabs/fodsync/internal/classifier"
	"github.com/lowfodlabs/fodsync/internal/config"
	"github.com/lowfodlabs/fodsync/internal/records"
	"github.com/lowfodlabs/fodsync/internal/sync"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Records      records.System
	Classifier   *classifier.Client
	Orchestrator *sync.Orchestrator
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	recordsSystem := records.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	client := classifier.New(&cfg.Classifier, runtime.Logger)

	orchestrator := sync.NewOrchestrator(
		recordsSystem,
		client,
		&cfg.Sync,
		runtime.Logger,
	)

	return &Domain{
		Records:      recordsSystem,
		Classifier:   client,
		Orchestrator: orchestrator,
	}
}
