package session

import "strings"

const labelSeparator = " by "

// Placeholder is shown by pickers before any book is chosen
const Placeholder = "Select a book"

// BookLabel formats a book for display in a picker
func BookLabel(title, author string) string {
	return title + labelSeparator + author
}

// ParseBookLabel splits a picker label back into title and author. The
// split happens at the last " by " so titles containing the word keep it.
// The placeholder, a label without separator, or one with an empty side
// reports ok=false, which callers treat as "no selection".
func ParseBookLabel(label string) (title, author string, ok bool) {
	if label == "" || label == Placeholder {
		return "", "", false
	}
	i := strings.LastIndex(label, labelSeparator)
	if i < 0 {
		return "", "", false
	}
	title = strings.TrimSpace(label[:i])
	author = strings.TrimSpace(label[i+len(labelSeparator):])
	if title == "" || author == "" {
		return "", "", false
	}
	return title, author, true
}
