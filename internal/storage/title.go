package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/nekolators/internal/models"
)

// GenerateTitle creates an auto-generated title from participant names.
// Blank names are skipped.
func GenerateTitle(names []string, now time.Time) string {
	var named []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			named = append(named, n)
		}
	}

	if len(named) == 0 {
		return fmt.Sprintf("Split - %s", now.Format("Jan 2, 2006"))
	}
	if len(named) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(named, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(named[:2], ", "),
		len(named)-2,
	)
}

// ParticipantNames returns the display names of a basic calculation.
func ParticipantNames(persons []models.Participant) []string {
	names := make([]string, len(persons))
	for i, p := range persons {
		names[i] = p.Name
	}
	return names
}

// PersonNames returns the display names of an expert calculation.
func PersonNames(persons []models.Person) []string {
	names := make([]string, len(persons))
	for i, p := range persons {
		names[i] = p.Name
	}
	return names
}

// PrepareCalculation fills in the ID-independent defaults a store applies on
// create: timestamps and title.
func PrepareCalculation(calc *models.Calculation, now time.Time) {
	if calc.CreatedAt == 0 {
		calc.CreatedAt = now.Unix()
	}
	calc.UpdatedAt = now.Unix()
	if calc.Title == "" {
		calc.Title = GenerateTitle(ParticipantNames(calc.Persons), now)
	}
}

// PrepareExpertCalculation is PrepareCalculation for expert calculations.
func PrepareExpertCalculation(calc *models.ExpertCalculation, now time.Time) {
	if calc.CreatedAt == 0 {
		calc.CreatedAt = now.Unix()
	}
	calc.UpdatedAt = now.Unix()
	if calc.Title == "" {
		calc.Title = GenerateTitle(PersonNames(calc.Persons), now)
	}
}
