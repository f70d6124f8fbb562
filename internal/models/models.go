package models

import "time"

// Book represents a tracked reading item
type Book struct {
	ID        int64      `gorm:"column:booksId;primaryKey;autoIncrement" json:"id"`
	Title     string     `gorm:"column:title;index" json:"title"`
	Author    string     `gorm:"column:author" json:"author"`
	StartDate time.Time  `gorm:"column:start_date;type:date" json:"start_date"`
	EndDate   *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
	DailyGoal *string    `gorm:"column:daily_goal" json:"daily_goal,omitempty"`

	Progress []ProgressEntry `gorm:"foreignKey:BookID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// Label returns the "title by author" form used by pickers
func (b Book) Label() string {
	return b.Title + " by " + b.Author
}

// ProgressEntry represents one dated record of pages read against a book
type ProgressEntry struct {
	ID        int64     `gorm:"column:reading_progressId;primaryKey;autoIncrement" json:"id"`
	BookID    int64     `gorm:"column:booksId;not null;index" json:"book_id"`
	Date      time.Time `gorm:"column:date;type:date" json:"date"`
	PagesRead int       `gorm:"column:pages_read;not null;check:pages_read >= 0" json:"pages_read"`
}

func (ProgressEntry) TableName() string {
	return "reading_progress"
}

// ProgressRow is a progress entry joined to its book title
type ProgressRow struct {
	Title     string    `gorm:"column:title" json:"title"`
	Date      time.Time `gorm:"column:date" json:"date"`
	PagesRead int       `gorm:"column:pages_read" json:"pages_read"`
}
