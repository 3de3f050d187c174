package classifier

import (
	"time"

	"github.com/lowfodlabs/fodsync/internal/records"
)

// SubmitResult aggregates a multi-batch submission.
type SubmitResult struct {
	SubmittedCount int    `json:"submitted_count"`
	Message        string `json:"message,omitempty"`
}

// StatusResult is one record's classification state as reported by the service.
type StatusResult struct {
	ID          string         `json:"id"`
	Status      records.Status `json:"status"`
	Explanation *string        `json:"explanation,omitempty"`
	IsFood      *bool          `json:"isFood,omitempty"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
}

// PollResult aggregates a multi-batch status poll. MissingIDs lists ids the
// service has no knowledge of; those records need resubmission.
type PollResult struct {
	Results    []StatusResult `json:"results"`
	Found      int            `json:"found"`
	Missing    int            `json:"missing"`
	MissingIDs []string       `json:"missingIds"`
}

// Health is a cached health probe outcome.
type Health struct {
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Wire types for the classification service endpoints.

type submitProduct struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

type submitRequest struct {
	Products []submitProduct `json:"products"`
}

type submitResponse struct {
	Success        bool   `json:"success"`
	SubmittedCount int    `json:"submitted_count"`
	Message        string `json:"message,omitempty"`
}

type statusRequest struct {
	IDs []string `json:"ids"`
}

type statusResponse struct {
	Results    []StatusResult `json:"results"`
	Found      int            `json:"found"`
	Missing    int            `json:"missing"`
	MissingIDs []string       `json:"missingIds"`
}
