package records_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/lowfodlabs/fodsync/internal/records"
)

var errTest = errors.New("boom")

func TestStatusValid(t *testing.T) {
	valid := []records.Status{
		records.StatusLow,
		records.StatusModerate,
		records.StatusHigh,
		records.StatusUnknown,
		records.StatusPending,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("Valid(%q) = false, want true", s)
		}
	}

	invalid := []records.Status{"", "low", "MEDIUM", "DONE"}
	for _, s := range invalid {
		if s.Valid() {
			t.Errorf("Valid(%q) = true, want false", s)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status records.Status
		want   bool
	}{
		{records.StatusLow, true},
		{records.StatusModerate, true},
		{records.StatusHigh, true},
		{records.StatusUnknown, true},
		{records.StatusPending, false},
		{records.Status("bogus"), false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestRecordSubmittable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		rec  records.Record
		want bool
	}{
		{
			name: "fresh unknown record",
			rec:  records.Record{Status: records.StatusUnknown},
			want: true,
		},
		{
			name: "pending after reset",
			rec:  records.Record{Status: records.StatusPending},
			want: true,
		},
		{
			name: "already submitted",
			rec:  records.Record{Status: records.StatusPending, SubmittedAt: &now},
			want: false,
		},
		{
			name: "terminally classified",
			rec:  records.Record{Status: records.StatusLow},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Submittable(); got != tt.want {
				t.Errorf("Submittable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordAwaitingResult(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		rec  records.Record
		want bool
	}{
		{
			name: "submitted and pending",
			rec:  records.Record{Status: records.StatusPending, SubmittedAt: &now},
			want: true,
		},
		{
			name: "stamped but submission failed",
			rec:  records.Record{Status: records.StatusUnknown, SubmittedAt: &now},
			want: true,
		},
		{
			name: "never submitted",
			rec:  records.Record{Status: records.StatusUnknown},
			want: false,
		},
		{
			name: "result already applied",
			rec:  records.Record{Status: records.StatusLow, SubmittedAt: &now, ProcessedAt: &now},
			want: false,
		},
		{
			name: "terminal without processed stamp",
			rec:  records.Record{Status: records.StatusHigh, SubmittedAt: &now},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.AwaitingResult(); got != tt.want {
				t.Errorf("AwaitingResult() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple name", "Green Beans", "green-beans"},
		{"punctuation collapsed", "Green Beans (500g)", "green-beans-500g"},
		{"leading and trailing noise", "  --Chick Peas!  ", "chick-peas"},
		{"multiple separators", "Gluten   Free / Bread", "gluten-free-bread"},
		{"already normalized", "oat-milk", "oat-milk"},
		{"empty", "", ""},
		{"only punctuation", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := records.NormalizeID(tt.input); got != tt.want {
				t.Errorf("NormalizeID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", records.ErrNotFound, http.StatusNotFound},
		{"duplicate", records.ErrDuplicate, http.StatusConflict},
		{"missing name", records.ErrNoName, http.StatusBadRequest},
		{"unexpected", errTest, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := records.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("status", "LOW")
	values.Set("category", "dairy")
	values.Set("is_food", "true")

	f := records.FiltersFromQuery(values)

	if f.Status == nil || *f.Status != records.StatusLow {
		t.Errorf("Status = %v, want LOW", f.Status)
	}
	if f.Category == nil || *f.Category != "dairy" {
		t.Errorf("Category = %v, want dairy", f.Category)
	}
	if f.IsFood == nil || !*f.IsFood {
		t.Errorf("IsFood = %v, want true", f.IsFood)
	}
}

func TestFiltersFromQueryIgnoresInvalid(t *testing.T) {
	values := url.Values{}
	values.Set("status", "MEDIUM")
	values.Set("is_food", "maybe")

	f := records.FiltersFromQuery(values)

	if f.Status != nil {
		t.Errorf("Status = %v, want nil for invalid value", f.Status)
	}
	if f.IsFood != nil {
		t.Errorf("IsFood = %v, want nil for invalid value", f.IsFood)
	}
	if f.Category != nil {
		t.Errorf("Category = %v, want nil when absent", f.Category)
	}
}
