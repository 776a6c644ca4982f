package model

import (
	"errors"
	"math"
)

// ErrIDExhausted means the largest ID in use is math.MaxInt, so no
// identifier can be assigned above it.
var ErrIDExhausted = errors.New("no employee ID left above the current maximum")

// Table is the in-memory view of the spreadsheet, in file row order.
type Table struct {
	Rows []Employee
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has no rows
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Find returns the first row with the given ID
func (t *Table) Find(id int) (Employee, bool) {
	for _, row := range t.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return Employee{}, false
}

// Contains reports whether any row has the given ID
func (t *Table) Contains(id int) bool {
	_, ok := t.Find(id)
	return ok
}

// NextID returns max(ID)+1, or 1 for an empty table
func (t *Table) NextID() (int, error) {
	if t.IsEmpty() {
		return 1, nil
	}
	maxID := t.Rows[0].ID
	for _, row := range t.Rows[1:] {
		if row.ID > maxID {
			maxID = row.ID
		}
	}
	if maxID == math.MaxInt {
		return 0, ErrIDExhausted
	}
	return maxID + 1, nil
}

// Append adds a row at the end of the table
func (t *Table) Append(e Employee) {
	t.Rows = append(t.Rows, e)
}

// Update applies the patch to every row with the given ID and returns how many matched
func (t *Table) Update(id int, patch Patch) int {
	matched := 0
	for i := range t.Rows {
		if t.Rows[i].ID == id {
			patch.Apply(&t.Rows[i])
			matched++
		}
	}
	return matched
}

// Remove drops every row with the given ID and returns how many were removed
func (t *Table) Remove(id int) int {
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		if row.ID == id {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}
