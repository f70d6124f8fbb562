package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tracker/internal/models"
	"tracker/internal/session"
)

// handleRemoveBookStart resets the confirmation flow and shows the picker
func (b *Bot) handleRemoveBookStart(ctx context.Context, message *tgbotapi.Message) {
	b.sessions.Get(message.From.ID).Removal.Cancel()
	b.startBookPicker(ctx, message, cmdRemoveBook, "🗑 Which book do you want to remove?")
}

// handleRemovePick selects a book; picking another one starts the
// confirmation over
func (b *Bot) handleRemovePick(ctx context.Context, query *tgbotapi.CallbackQuery, title, author string) {
	chatID := query.Message.Chat.ID
	removal := &b.sessions.Get(query.From.ID).Removal
	label := session.BookLabel(title, author)

	if removal.Select(label) != session.Selected {
		b.sendText(chatID, "No book selected.")
		return
	}

	matches := 1
	if books, err := b.tracker.Books(ctx); err != nil {
		b.logger.Warn("Failed to count matching books", zap.Error(err))
	} else {
		matches = countMatching(books, title, author)
	}

	msg := tgbotapi.NewMessage(chatID, removalPrompt(label, matches))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "remove:delete"),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", "remove:cancel"),
		),
	)
	b.sendMessage(msg)
}

// removalPrompt names the selection. Removal goes by title and author, so
// with duplicates the oldest copy is the one removed.
func removalPrompt(label string, matches int) string {
	text := "Selected: " + label
	if matches > 1 {
		text += fmt.Sprintf("\n\n⚠️ %d books share this title and author. The oldest one is removed first.", matches)
	}
	return text
}

func countMatching(books []models.Book, title, author string) int {
	n := 0
	for _, book := range books {
		if book.Title == title && book.Author == author {
			n++
		}
	}
	return n
}

// handleRemoveCallback drives the Delete, Confirm and Cancel buttons
func (b *Bot) handleRemoveCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != cmdRemoveBook {
		return
	}

	chatID := query.Message.Chat.ID
	removal := &b.sessions.Get(query.From.ID).Removal

	switch strings.TrimPrefix(query.Data, "remove:") {
	case "delete":
		if removal.RequestDelete() != session.Confirming {
			b.sendText(chatID, "Please pick a book first.")
			return
		}

		msg := tgbotapi.NewMessage(chatID, "⚠️ Remove "+removal.Target()+" and all of its reading progress? This cannot be undone.")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", "remove:confirm"),
				tgbotapi.NewInlineKeyboardButtonData("✖️ Cancel", "remove:cancel"),
			),
		)
		b.sendMessage(msg)

	case "confirm":
		title, author, ok := removal.Confirm()
		if !ok {
			b.sendText(chatID, "Nothing to confirm. Press Delete first.")
			return
		}

		removed, err := b.tracker.RemoveBook(ctx, title, author)
		switch {
		case err != nil:
			b.logger.Error("Failed to remove book from chat",
				zap.String("title", title),
				zap.String("author", author),
				zap.Error(err),
			)
			b.sendText(chatID, userError(err))
		case removed:
			b.sendText(chatID, "✅ Removed "+session.BookLabel(title, author)+".")
		default:
			b.sendText(chatID, "That book was already removed.")
		}
		state.Step = stepDone

	case "cancel":
		removal.Cancel()
		b.sendText(chatID, "Cancelled. Nothing was removed.")
		state.Step = stepDone
	}
}
