// Package pivot turns the flat progress table into a date by title
// presence matrix.
package pivot

import (
	"sort"
	"time"

	"tracker/internal/models"
)

const dateLayout = "2006-01-02"

// Matrix is a presence grid: Cells[i][j] is 1 when at least one progress
// entry exists for Dates[i] and Titles[j], otherwise 0.
type Matrix struct {
	Dates  []time.Time
	Titles []string
	Cells  [][]int
}

// Build pivots rows into a Matrix. Dates are distinct calendar days in
// ascending order, titles appear in the order they are first seen. Cells
// record presence only; several entries for the same (date, title) still
// yield 1. An empty input yields an empty matrix.
func Build(rows []models.ProgressRow) *Matrix {
	m := &Matrix{
		Dates:  []time.Time{},
		Titles: []string{},
		Cells:  [][]int{},
	}
	if len(rows) == 0 {
		return m
	}

	titleIdx := make(map[string]int)
	days := make(map[string]time.Time)
	for _, row := range rows {
		if _, ok := titleIdx[row.Title]; !ok {
			titleIdx[row.Title] = len(m.Titles)
			m.Titles = append(m.Titles, row.Title)
		}
		d := calendarDay(row.Date)
		days[d.Format(dateLayout)] = d
	}

	for _, d := range days {
		m.Dates = append(m.Dates, d)
	}
	sort.Slice(m.Dates, func(i, j int) bool {
		return m.Dates[i].Before(m.Dates[j])
	})

	dateIdx := make(map[string]int, len(m.Dates))
	for i, d := range m.Dates {
		dateIdx[d.Format(dateLayout)] = i
	}

	m.Cells = make([][]int, len(m.Dates))
	for i := range m.Cells {
		m.Cells[i] = make([]int, len(m.Titles))
	}
	for _, row := range rows {
		i := dateIdx[calendarDay(row.Date).Format(dateLayout)]
		m.Cells[i][titleIdx[row.Title]] = 1
	}
	return m
}

// Empty reports whether the matrix has no rows
func (m *Matrix) Empty() bool {
	return m == nil || len(m.Dates) == 0
}

// Rows returns the number of dates
func (m *Matrix) Rows() int {
	if m == nil {
		return 0
	}
	return len(m.Dates)
}

// Cols returns the number of titles
func (m *Matrix) Cols() int {
	if m == nil {
		return 0
	}
	return len(m.Titles)
}

// Value returns the cell for the given day and title, 0 when either is absent
func (m *Matrix) Value(date time.Time, title string) int {
	if m == nil {
		return 0
	}
	key := calendarDay(date).Format(dateLayout)
	for i, d := range m.Dates {
		if d.Format(dateLayout) != key {
			continue
		}
		for j, t := range m.Titles {
			if t == title {
				return m.Cells[i][j]
			}
		}
	}
	return 0
}

// DateLabels returns the dates formatted as YYYY-MM-DD
func (m *Matrix) DateLabels() []string {
	labels := make([]string, m.Rows())
	for i := range labels {
		d := m.Dates[i]
		labels[i] = d.Format(dateLayout)
	}
	return labels
}

// LastDates returns the window of the n most recent dates. Titles without
// any entry inside the window are dropped, the rest keep their order. m is
// returned unchanged when it already fits.
func (m *Matrix) LastDates(n int) *Matrix {
	if m.Rows() <= n || n < 0 {
		return m
	}

	start := m.Rows() - n
	keep := make([]int, 0, m.Cols())
	for j := range m.Titles {
		for i := start; i < m.Rows(); i++ {
			if m.Cells[i][j] == 1 {
				keep = append(keep, j)
				break
			}
		}
	}

	out := &Matrix{
		Dates:  append([]time.Time{}, m.Dates[start:]...),
		Titles: make([]string, 0, len(keep)),
		Cells:  make([][]int, n),
	}
	for _, j := range keep {
		out.Titles = append(out.Titles, m.Titles[j])
	}
	for i := range out.Cells {
		row := make([]int, len(keep))
		for k, j := range keep {
			row[k] = m.Cells[start+i][j]
		}
		out.Cells[i] = row
	}
	return out
}

// calendarDay drops the time of day, keeping the date as written
func calendarDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

