// Package records implements the product classification record domain.
// It provides types, data access, and business logic for storing, querying,
// and updating the FODMAP classification state of grocery products.
package records

import "time"

// Status is the FODMAP classification state of a record.
type Status string

// Classification statuses. UNKNOWN and PENDING are the only states eligible
// for submission to the classification service; the rest are terminal.
const (
	StatusLow      Status = "LOW"
	StatusModerate Status = "MODERATE"
	StatusHigh     Status = "HIGH"
	StatusUnknown  Status = "UNKNOWN"
	StatusPending  Status = "PENDING"
)

// Valid reports whether s is a known classification status.
func (s Status) Valid() bool {
	switch s {
	case StatusLow, StatusModerate, StatusHigh, StatusUnknown, StatusPending:
		return true
	}
	return false
}

// Terminal reports whether s is a final classification result.
// PENDING is the only non-terminal valid status.
func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPending
}

// Record represents a product's classification state. It mirrors the records
// table schema. SubmittedAt is set when the record is handed to the
// classification service; ProcessedAt is set only once a terminal result
// arrives.
type Record struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Status      Status     `json:"status"`
	Explanation *string    `json:"explanation"`
	IsFood      *bool      `json:"is_food"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Submittable reports whether the record is eligible for the submit cycle:
// never handed to the service and not yet terminally classified.
func (r *Record) Submittable() bool {
	return r.SubmittedAt == nil && (r.Status == StatusUnknown || r.Status == StatusPending)
}

// AwaitingResult reports whether the record is eligible for the poll cycle:
// stamped, no result applied yet. Status UNKNOWN is included alongside
// PENDING so a submission that failed after stamping still reaches the
// classifier's missing-id reconciliation instead of staying parked forever.
func (r *Record) AwaitingResult() bool {
	return r.SubmittedAt != nil && r.ProcessedAt == nil &&
		(r.Status == StatusUnknown || r.Status == StatusPending)
}

// IngestCommand carries one scraped product for ingestion. ID is optional;
// when empty it is derived from the normalized name.
type IngestCommand struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// IngestResult summarizes a bulk ingest: how many rows were newly created,
// how many existing rows were refreshed, and the full id set touched.
type IngestResult struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	IDs      []string `json:"ids"`
}

// ResultUpdate carries a terminal classification received from the service,
// to be applied to the matching local record.
type ResultUpdate struct {
	ID          string
	Status      Status
	Explanation *string
	IsFood      *bool
	ProcessedAt time.Time
}
