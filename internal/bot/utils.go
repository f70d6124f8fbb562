package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tracker/internal/models"
	"tracker/internal/storage"
	"tracker/internal/tracker"
)

// sendMessage sends anything chattable, a nil api makes it a no-op for tests
func (b *Bot) sendMessage(c tgbotapi.Chattable) {
	if b.api == nil {
		return
	}
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// sendPhoto uploads an in-memory PNG
func (b *Bot) sendPhoto(chatID int64, name string, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	b.sendMessage(photo)
}

// bookKeyboard lists books two per row, each button carrying the book ID
func bookKeyboard(books []models.Book) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var currentRow []tgbotapi.InlineKeyboardButton
	for i, book := range books {
		button := tgbotapi.NewInlineKeyboardButtonData(
			book.Label(),
			fmt.Sprintf("book:%d", book.ID),
		)
		currentRow = append(currentRow, button)

		// Add row when we have 2 buttons or it's the last book
		if len(currentRow) == 2 || i == len(books)-1 {
			rows = append(rows, currentRow)
			currentRow = []tgbotapi.InlineKeyboardButton{}
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func skipKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", "skip"),
		),
	)
}

// parseDateInput accepts "today", "yesterday" or YYYY-MM-DD
func parseDateInput(text string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "today":
		return tracker.Day(now), nil
	case "yesterday":
		return tracker.Day(now.AddDate(0, 0, -1)), nil
	}
	return tracker.ParseDate(text)
}

func isSkip(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "skip" || t == "none"
}

func formatBook(book *models.Book) string {
	var s strings.Builder
	fmt.Fprintf(&s, "📖 %s\n✍️ %s\n📅 Started: %s", book.Title, book.Author, book.StartDate.Format(tracker.DateLayout))
	if book.EndDate != nil {
		fmt.Fprintf(&s, "\n🏁 Finished: %s", book.EndDate.Format(tracker.DateLayout))
	}
	if book.DailyGoal != nil {
		fmt.Fprintf(&s, "\n🎯 Daily goal: %s", *book.DailyGoal)
	}
	return s.String()
}

// userError turns an operation error into a message for the chat
func userError(err error) string {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput):
		return "❌ " + err.Error()
	case errors.Is(err, storage.ErrBookNotFound), errors.Is(err, storage.ErrUnknownBook):
		return "❌ That book no longer exists."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
