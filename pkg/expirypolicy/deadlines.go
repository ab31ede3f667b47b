package expirypolicy

import (
	"fmt"
	"sort"
)

// the reminder schedule the tool has always shipped with
var DefaultDeadlines = MustNewDeadlines(15, 10, 7, 4, 3, 2, 1)

// Deadlines are days-before-expiration at which a one-time reminder is sent.
// always sorted descending. zero is not allowed because expiration day is always notified.
type Deadlines struct {
	days []int
}

func NewDeadlines(days ...int) (Deadlines, error) {
	sorted := append([]int{}, days...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for idx, day := range sorted {
		if day <= 0 {
			return Deadlines{}, fmt.Errorf("deadline must be positive, got %d", day)
		}

		if idx > 0 && sorted[idx-1] == day {
			return Deadlines{}, fmt.Errorf("duplicate deadline %d", day)
		}
	}

	return Deadlines{sorted}, nil
}

func MustNewDeadlines(days ...int) Deadlines {
	deadlines, err := NewDeadlines(days...)
	if err != nil {
		panic(err)
	}

	return deadlines
}

// copy, so callers can't mutate our ordering
func (d Deadlines) Days() []int {
	return append([]int{}, d.days...)
}
