package search

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"buyerradar/server/internal/models"
)

func TestSinceDate(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		months   int
		expected models.Date
	}{
		{
			name:     "Twelve months",
			now:      time.Date(2026, time.January, 15, 23, 59, 0, 0, time.UTC),
			months:   12,
			expected: models.NewDate(2025, time.January, 15),
		},
		{
			name:     "Zero months is today",
			now:      time.Date(2026, time.January, 15, 8, 0, 0, 0, time.UTC),
			months:   0,
			expected: models.NewDate(2026, time.January, 15),
		},
		{
			name:     "Day overflow rolls into next month",
			now:      time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: models.NewDate(2026, time.March, 3),
		},
		{
			name:     "Leap day rolls forward",
			now:      time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			months:   12,
			expected: models.NewDate(2023, time.March, 1),
		},
		{
			name:     "Twenty four months",
			now:      time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
			months:   24,
			expected: models.NewDate(2024, time.January, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SinceDate(tt.now, tt.months))
		})
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
		valid  bool
	}{
		{name: "Defaults", mutate: func(p *Params) {}, valid: true},
		{name: "Fractional radius", mutate: func(p *Params) { p.RadiusMiles = 0.25 }, valid: true},
		{name: "Zero months", mutate: func(p *Params) { p.Months = 0 }, valid: true},
		{name: "Each buyer category", mutate: func(p *Params) { p.Category = models.CategoryCash }, valid: true},
		{name: "Zero radius", mutate: func(p *Params) { p.RadiusMiles = 0 }},
		{name: "Negative radius", mutate: func(p *Params) { p.RadiusMiles = -2 }},
		{name: "NaN radius", mutate: func(p *Params) { p.RadiusMiles = math.NaN() }},
		{name: "Infinite radius", mutate: func(p *Params) { p.RadiusMiles = math.Inf(1) }},
		{name: "Negative months", mutate: func(p *Params) { p.Months = -1 }},
		{name: "Unknown category", mutate: func(p *Params) { p.Category = "wholesaler" }},
		{name: "Empty category", mutate: func(p *Params) { p.Category = "" }},
		{name: "Latitude out of range", mutate: func(p *Params) { p.Center.Latitude = 91 }},
		{name: "Longitude out of range", mutate: func(p *Params) { p.Center.Longitude = -181 }},
		{name: "NaN latitude", mutate: func(p *Params) { p.Center.Latitude = math.NaN() }},
		{name: "Too few segments", mutate: func(p *Params) { p.Segments = 2 }},
		{name: "Missing clock", mutate: func(p *Params) { p.Now = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams()
			tt.mutate(&p)

			err := p.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.NotErrorIs(t, err, ErrDataIntegrity)
			}
		})
	}
}
