package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/nekolators/internal/models"
)

func TestGenerateTitle(t *testing.T) {
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		names []string
		want  string
	}{
		{nil, "Split - Mar 14, 2026"},
		{[]string{"", "  "}, "Split - Mar 14, 2026"},
		{[]string{"Ayu"}, "Split with Ayu"},
		{[]string{"Ayu", "", "Budi"}, "Split with Ayu, Budi"},
		{[]string{"Ayu", "Budi", "Citra"}, "Split with Ayu, Budi, Citra"},
		{[]string{"Ayu", "Budi", "Citra", "Dewi"}, "Split with Ayu, Budi and 2 others"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateTitle(tt.names, now))
		})
	}
}

func TestPrepareCalculation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	calc := &models.Calculation{Persons: []models.Participant{{Name: "Ayu"}, {Name: "Budi"}}}
	PrepareCalculation(calc, now)
	assert.Equal(t, "Split with Ayu, Budi", calc.Title)
	assert.Equal(t, now.Unix(), calc.CreatedAt)
	assert.Equal(t, now.Unix(), calc.UpdatedAt)

	// Existing title and creation time are kept.
	calc.Title = "Makan siang"
	PrepareCalculation(calc, now.Add(time.Hour))
	assert.Equal(t, "Makan siang", calc.Title)
	assert.Equal(t, now.Unix(), calc.CreatedAt)
	assert.Equal(t, now.Add(time.Hour).Unix(), calc.UpdatedAt)
}
