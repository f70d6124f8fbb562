package pivot

import "tracker/internal/models"

// TitleSummary aggregates the progress history of one title
type TitleSummary struct {
	Title     string `json:"title"`
	DaysRead  int    `json:"days_read"`
	PagesRead int    `json:"pages_read"`
	Entries   int    `json:"entries"`
}

// Summarize totals rows per title, in first-seen title order
func Summarize(rows []models.ProgressRow) []TitleSummary {
	summaries := []TitleSummary{}
	index := make(map[string]int)
	days := make(map[string]map[string]struct{})

	for _, row := range rows {
		i, ok := index[row.Title]
		if !ok {
			i = len(summaries)
			index[row.Title] = i
			summaries = append(summaries, TitleSummary{Title: row.Title})
			days[row.Title] = make(map[string]struct{})
		}

		s := &summaries[i]
		s.Entries++
		s.PagesRead += row.PagesRead
		days[row.Title][calendarDay(row.Date).Format(dateLayout)] = struct{}{}
	}

	for i := range summaries {
		summaries[i].DaysRead = len(days[summaries[i].Title])
	}
	return summaries
}
