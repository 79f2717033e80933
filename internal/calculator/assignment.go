package calculator

import "github.com/mmynk/nekolators/internal/models"

// Totals is the result of an item assignment calculation.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	FinalTotal float64 `json:"finalTotal"`

	// PersonTotals is what each person pays after discount and tax.
	PersonTotals map[string]float64 `json:"personTotals"`

	// PersonItemTotals is each person's share of item prices before
	// discount and tax.
	PersonItemTotals map[string]float64 `json:"personItemTotals"`
}

// ItemAssignmentTotals splits items among the persons assigned to them and
// distributes the shared discount and tax in proportion to each person's
// share of the subtotal.
//
// Algorithm:
//   - subtotal is the sum of all item prices, assigned or not
//   - an item with N assignees adds price/N to each of them; an item with no
//     assignees adds nothing to anyone
//   - proportion = person_item_total / subtotal (0 unless subtotal > 0)
//   - person_total = person_item_total - proportion*discount + proportion*tax
//   - finalTotal = subtotal - discount + tax
//
// finalTotal is computed independently of the per-person totals, so when
// items are unassigned the person totals add up to less than finalTotal.
func ItemAssignmentTotals(items []models.Item, persons []models.Person, assignments []models.Assignment, discount, tax float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price
	}

	personItemTotals := make(map[string]float64, len(persons))
	for _, p := range persons {
		personItemTotals[p.ID] = 0
	}

	assignees := assigneesByItem(assignments)
	for _, item := range items {
		assigned := assignees[item.ID]
		if len(assigned) == 0 {
			continue
		}

		perPerson := item.Price / float64(len(assigned))
		for _, personID := range assigned {
			// A person missing from the list still counts toward the item's
			// divisor, but gets no entry: their share is dropped rather than
			// recorded as a NaN total under an unknown id.
			if _, ok := personItemTotals[personID]; ok {
				personItemTotals[personID] += perPerson
			}
		}
	}

	personTotals := make(map[string]float64, len(persons))
	for _, p := range persons {
		itemTotal := personItemTotals[p.ID]
		var proportion float64
		if subtotal > 0 {
			proportion = itemTotal / subtotal
		}
		personTotals[p.ID] = itemTotal - proportion*discount + proportion*tax
	}

	return Totals{
		Subtotal:         subtotal,
		FinalTotal:       subtotal - discount + tax,
		PersonTotals:     personTotals,
		PersonItemTotals: personItemTotals,
	}
}

// assigneesByItem groups person IDs by item ID, ignoring duplicate pairs.
// Person order within an item follows first appearance.
func assigneesByItem(assignments []models.Assignment) map[string][]string {
	seen := make(map[models.Assignment]bool, len(assignments))
	byItem := make(map[string][]string)
	for _, a := range assignments {
		if seen[a] {
			continue
		}
		seen[a] = true
		byItem[a.ItemID] = append(byItem[a.ItemID], a.PersonID)
	}
	return byItem
}

// UnassignedItems returns the items nobody is assigned to.
func UnassignedItems(items []models.Item, assignments []models.Assignment) []models.Item {
	assignees := assigneesByItem(assignments)
	var out []models.Item
	for _, item := range items {
		if len(assignees[item.ID]) == 0 {
			out = append(out, item)
		}
	}
	return out
}
