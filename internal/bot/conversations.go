package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tracker/internal/models"
	"tracker/internal/tracker"
)

const keepValue = "-"

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	userID := message.From.ID

	switch state.Command {
	case cmdAddBook:
		b.handleAddBookConversation(ctx, message, state)
	case cmdRead:
		b.handleReadConversation(ctx, message, state)
	case cmdEditBook:
		b.handleEditBookConversation(ctx, message, state)
	case cmdRemoveBook:
		b.sendText(message.Chat.ID, "Please use the buttons above, or send /remove_book to start over.")
	}

	// Clean up completed conversations
	if state.Step == stepDone {
		b.clearState(userID)
	}
}

// handleAddBookConversation handles the new book multi-step process
func (b *Bot) handleAddBookConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch state.Step {
	case 1: // Waiting for title
		if text == "" {
			b.sendText(chatID, "The title cannot be empty. Please enter the book title:")
			return
		}
		state.Data["title"] = text
		state.Step = 2
		b.sendText(chatID, "Who is the author?")

	case 2: // Waiting for author
		if text == "" {
			b.sendText(chatID, "The author cannot be empty. Who is the author?")
			return
		}
		state.Data["author"] = text
		state.Step = 3

		msg := tgbotapi.NewMessage(chatID, "📅 When did you start reading? Enter YYYY-MM-DD or press Today.")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📆 Today", "date:today"),
			),
		)
		b.sendMessage(msg)

	case 3: // Waiting for start date
		date, err := parseDateInput(text, time.Now())
		if err != nil {
			b.sendText(chatID, "❌ Invalid date format. Please use YYYY-MM-DD\n\nExample: 2024-01-15")
			return
		}
		b.setAddBookStart(chatID, state, date)

	case 4: // Waiting for end date
		if isSkip(text) {
			b.skipAddBookStep(ctx, chatID, state)
			return
		}
		date, err := parseDateInput(text, time.Now())
		if err != nil {
			b.sendText(chatID, "❌ Invalid date format. Please use YYYY-MM-DD, or press Skip.")
			return
		}
		state.Data["end_date"] = &date
		state.Step = 5
		b.askDailyGoal(chatID)

	case 5: // Waiting for daily goal
		if isSkip(text) {
			b.skipAddBookStep(ctx, chatID, state)
			return
		}
		goal := text
		state.Data["daily_goal"] = &goal
		b.finishAddBook(ctx, chatID, state)
	}
}

func (b *Bot) setAddBookStart(chatID int64, state *ConversationState, date time.Time) {
	state.Data["start_date"] = date
	state.Step = 4

	msg := tgbotapi.NewMessage(chatID, "🏁 When did you finish? Enter YYYY-MM-DD or press Skip if you are still reading.")
	msg.ReplyMarkup = skipKeyboard()
	b.sendMessage(msg)
}

func (b *Bot) askDailyGoal(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "🎯 Do you have a daily goal (for example \"20 pages\")? Enter it or press Skip.")
	msg.ReplyMarkup = skipKeyboard()
	b.sendMessage(msg)
}

// skipAddBookStep leaves the current optional field empty and moves on
func (b *Bot) skipAddBookStep(ctx context.Context, chatID int64, state *ConversationState) {
	switch state.Step {
	case 4:
		state.Step = 5
		b.askDailyGoal(chatID)
	case 5:
		b.finishAddBook(ctx, chatID, state)
	}
}

func (b *Bot) finishAddBook(ctx context.Context, chatID int64, state *ConversationState) {
	in := tracker.BookInput{
		Title:     state.Data["title"].(string),
		Author:    state.Data["author"].(string),
		StartDate: state.Data["start_date"].(time.Time),
	}
	if end, ok := state.Data["end_date"].(*time.Time); ok {
		in.EndDate = end
	}
	if goal, ok := state.Data["daily_goal"].(*string); ok {
		in.DailyGoal = goal
	}

	book, err := b.tracker.AddBook(ctx, in)
	if err != nil {
		b.sendText(chatID, userError(err))
	} else {
		b.sendText(chatID, "✅ Book added!\n\n"+formatBook(book))
	}

	state.Step = stepDone // Mark conversation as complete
}

// handleReadConversation handles the typed steps of recording progress
func (b *Bot) handleReadConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch state.Step {
	case 1: // Waiting for book button
		b.sendText(chatID, "Please pick a book from the buttons above.")

	case 2: // Waiting for custom date input
		if _, ok := state.Data["awaiting_custom_date"]; !ok {
			b.sendText(chatID, "Please pick a date from the buttons above.")
			return
		}

		date, err := parseDateInput(text, time.Now())
		if err != nil {
			b.sendText(chatID, "❌ Invalid date format. Please use YYYY-MM-DD\n\nExample: 2024-01-15")
			return
		}

		// Clear the awaiting flag
		delete(state.Data, "awaiting_custom_date")
		b.setReadDate(chatID, state, date)

	case 3: // Waiting for pages read
		pages, err := strconv.Atoi(text)
		if err != nil || pages < 0 {
			b.sendText(chatID, "Please enter the number of pages as a whole number, 0 or more:")
			return
		}

		bookID := state.Data["book_id"].(int64)
		date := state.Data["date"].(time.Time)

		entry, err := b.tracker.AddProgress(ctx, bookID, date, pages)
		if err != nil {
			b.logger.Warn("Failed to record progress from chat",
				zap.Int64("book_id", bookID),
				zap.Error(err),
			)
			b.sendText(chatID, userError(err))
		} else {
			b.sendText(chatID, "✅ Progress recorded!\n\n📅 Date: "+entry.Date.Format(tracker.DateLayout)+
				"\n📚 Book: "+state.Data["book_label"].(string)+
				"\n📄 Pages: "+strconv.Itoa(entry.PagesRead))
		}

		state.Step = stepDone // Mark conversation as complete
	}
}

func (b *Bot) setReadDate(chatID int64, state *ConversationState, date time.Time) {
	state.Data["date"] = date
	state.Step = 3
	b.sendText(chatID, "📄 How many pages did you read?")
}

// handleEditBookConversation collects replacement values for every field.
// "-" keeps the current value and "none" clears an optional one.
func (b *Bot) handleEditBookConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	book, ok := state.Data["book"].(*models.Book)
	if !ok {
		b.sendText(chatID, "Please pick a book from the buttons above.")
		return
	}

	switch state.Step {
	case 2: // Title
		if text != keepValue && text != "" {
			book.Title = text
		}
		state.Step = 3
		b.sendText(chatID, "✍️ New author? Current: "+book.Author+"\n(send - to keep it)")

	case 3: // Author
		if text != keepValue && text != "" {
			book.Author = text
		}
		state.Step = 4
		b.sendText(chatID, "📅 New start date (YYYY-MM-DD)? Current: "+book.StartDate.Format(tracker.DateLayout)+"\n(send - to keep it)")

	case 4: // Start date
		if text != keepValue {
			date, err := parseDateInput(text, time.Now())
			if err != nil {
				b.sendText(chatID, "❌ Invalid date format. Please use YYYY-MM-DD, or send - to keep it.")
				return
			}
			book.StartDate = date
		}
		state.Step = 5
		b.sendText(chatID, "🏁 New end date (YYYY-MM-DD)? Current: "+optionalDate(book.EndDate)+"\n(send - to keep it, none to clear it)")

	case 5: // End date
		switch {
		case text == keepValue:
		case isSkip(text):
			book.EndDate = nil
		default:
			date, err := parseDateInput(text, time.Now())
			if err != nil {
				b.sendText(chatID, "❌ Invalid date format. Please use YYYY-MM-DD, - or none.")
				return
			}
			book.EndDate = &date
		}
		state.Step = 6
		b.sendText(chatID, "🎯 New daily goal? Current: "+optionalText(book.DailyGoal)+"\n(send - to keep it, none to clear it)")

	case 6: // Daily goal
		switch {
		case text == keepValue:
		case isSkip(text):
			book.DailyGoal = nil
		default:
			goal := text
			book.DailyGoal = &goal
		}

		in := tracker.BookInput{
			Title:     book.Title,
			Author:    book.Author,
			StartDate: book.StartDate,
			EndDate:   book.EndDate,
			DailyGoal: book.DailyGoal,
		}
		updated, err := b.tracker.UpdateBook(ctx, book.ID, in)
		switch {
		case err != nil:
			b.sendText(chatID, userError(err))
		case !updated:
			b.sendText(chatID, "❌ That book no longer exists.")
		default:
			b.sendText(chatID, "✅ Book updated!\n\n"+formatBook(book))
		}

		state.Step = stepDone // Mark conversation as complete
	}
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return "not set"
	}
	return t.Format(tracker.DateLayout)
}

func optionalText(s *string) string {
	if s == nil {
		return "not set"
	}
	return *s
}
