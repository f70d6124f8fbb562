package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tracker/internal/chart"
	"tracker/internal/tracker"
)

// handleBookCallback processes book selection for every picker conversation
func (b *Bot) handleBookCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	chatID := query.Message.Chat.ID

	if state.Step != 1 {
		return
	}

	bookID, err := strconv.ParseInt(strings.TrimPrefix(query.Data, "book:"), 10, 64)
	if err != nil {
		return
	}

	book, err := b.tracker.Book(ctx, bookID)
	if err != nil {
		b.logger.Warn("Invalid book selection",
			zap.Int64("book_id", bookID),
			zap.Int64("user_id", query.From.ID),
			zap.Error(err),
		)
		b.sendText(chatID, "Error: Invalid book selection")
		state.Step = stepDone
		return
	}

	switch state.Command {
	case cmdRead:
		state.Data["book_id"] = book.ID
		state.Data["book_label"] = book.Label()
		state.Step = 2

		msg := tgbotapi.NewMessage(chatID, "📅 Select reading date:")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📆 Today", "date:today"),
				tgbotapi.NewInlineKeyboardButtonData("⏮ Yesterday", "date:yesterday"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📝 Another day", "date:custom"),
			),
		)
		b.sendMessage(msg)

	case cmdEditBook:
		state.Data["book"] = book
		state.Step = 2
		b.sendText(chatID, formatBook(book)+"\n\n📖 New title? (send - to keep it)")

	case cmdRemoveBook:
		b.handleRemovePick(ctx, query, book.Title, book.Author)
	}
}

// handleDateCallback processes date buttons of the add_book and read flows
func (b *Bot) handleDateCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	chatID := query.Message.Chat.ID
	data := strings.TrimPrefix(query.Data, "date:")
	now := time.Now()

	switch {
	case state.Command == cmdAddBook && state.Step == 3:
		if data == "today" {
			b.setAddBookStart(chatID, state, tracker.Day(now))
		}

	case state.Command == cmdRead && state.Step == 2:
		switch data {
		case "today":
			b.setReadDate(chatID, state, tracker.Day(now))
		case "yesterday":
			b.setReadDate(chatID, state, tracker.Day(now.AddDate(0, 0, -1)))
		case "custom":
			state.Data["awaiting_custom_date"] = true
			b.sendText(chatID, "📝 Please enter the date in format YYYY-MM-DD\n\nExample: 2024-01-15")
		}
	}
}

// handleSkipCallback leaves an optional add_book field empty
func (b *Bot) handleSkipCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != cmdAddBook {
		return
	}
	b.skipAddBookStep(ctx, query.Message.Chat.ID, state)
}

// handleColormapCallback stores the chosen palette in the user's session
func (b *Bot) handleColormapCallback(query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	cmap, err := chart.ParseColormap(strings.TrimPrefix(query.Data, "cmap:"))
	if err != nil {
		b.sendText(chatID, "❌ Unknown colormap.")
		return
	}

	b.sessions.Get(query.From.ID).Colormap = cmap
	b.logger.Debug("Colormap changed", zap.Int64("user_id", query.From.ID), zap.String("colormap", cmap.String()))
	b.sendText(chatID, "🎨 Heatmap colormap set to "+cmap.String()+". Use /progress to see it.")
}
