package records

import (
	"net/url"
	"strconv"

	"github.com/lowfodlabs/fodsync/pkg/query"
	"github.com/lowfodlabs/fodsync/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "records", "r").
	Project("id", "ID").
	Project("name", "Name").
	Project("category", "Category").
	Project("status", "Status").
	Project("explanation", "Explanation").
	Project("is_food", "IsFood").
	Project("submitted_at", "SubmittedAt").
	Project("processed_at", "ProcessedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for record queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Status   *Status `json:"status,omitempty"`
	Category *string `json:"category,omitempty"`
	IsFood   *bool   `json:"is_food,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.Status != nil {
		b.WhereEquals("Status", string(*f.Status))
	}
	return b.
		WhereEquals("Category", f.Category).
		WhereEquals("IsFood", f.IsFood)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		if status := Status(s); status.Valid() {
			f.Status = &status
		}
	}

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	if v := values.Get("is_food"); v != "" {
		if isFood, err := strconv.ParseBool(v); err == nil {
			f.IsFood = &isFood
		}
	}

	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record

	err := s.Scan(
		&r.ID,
		&r.Name,
		&r.Category,
		&r.Status,
		&r.Explanation,
		&r.IsFood,
		&r.SubmittedAt,
		&r.ProcessedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)

	return r, err
}
