// Package solver picks the best set of physical tables for a party.
package solver

import (
	"sort"

	"tablebook/internal/models"
)

// BestCombination returns the preferred subset of tables able to seat
// partySize guests, or nil when no subset fits.
//
// A single table that fits always wins, and among those the smallest
// one is chosen. Only when no single table can seat the party are
// multi-table combinations considered; candidates are ranked by fewest
// tables, then by least total capacity. Each table is used at most
// once. The enumeration is exponential in len(tables), which is fine
// for restaurant-sized inputs.
func BestCombination(tables []*models.Table, partySize int) []*models.Table {
	if partySize <= 0 || len(tables) == 0 {
		return nil
	}

	var bestSingle *models.Table
	for _, t := range tables {
		if t.Seats < partySize {
			continue
		}
		if bestSingle == nil || t.Seats < bestSingle.Seats {
			bestSingle = t
		}
	}
	if bestSingle != nil {
		return []*models.Table{bestSingle}
	}

	var combos [][]*models.Table
	var current []*models.Table

	var walk func(start, capacity int)
	walk = func(start, capacity int) {
		if capacity >= partySize {
			combos = append(combos, append([]*models.Table(nil), current...))
			return
		}
		for i := start; i < len(tables); i++ {
			current = append(current, tables[i])
			walk(i+1, capacity+tables[i].Seats)
			current = current[:len(current)-1]
		}
	}
	walk(0, 0)

	if len(combos) == 0 {
		return nil
	}

	sort.Slice(combos, func(i, j int) bool {
		if len(combos[i]) != len(combos[j]) {
			return len(combos[i]) < len(combos[j])
		}
		return totalSeats(combos[i]) < totalSeats(combos[j])
	})

	return combos[0]
}

func totalSeats(tables []*models.Table) int {
	sum := 0
	for _, t := range tables {
		sum += t.Seats
	}
	return sum
}

// TotalSeats is the combined capacity of a table set.
func TotalSeats(tables []*models.Table) int {
	return totalSeats(tables)
}
