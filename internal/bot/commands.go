package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tracker/internal/chart"
)

// maxTableDates caps the text table so it fits a Telegram message
const maxTableDates = 30

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to the Reading Tracker! 📚

Available commands:
/books - List tracked books
/add_book - Start tracking a new book
/read - Record pages read
/edit_book - Change a book's details
/remove_book - Stop tracking a book
/progress - Show the reading progress table and heatmap
/colormap - Choose the heatmap colours`

	b.sendText(message.Chat.ID, text)
}

// handleBooks lists every tracked book
func (b *Bot) handleBooks(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.tracker.Books(ctx)
	if err != nil {
		b.logger.Error("Failed to list books", zap.Error(err))
		b.sendText(message.Chat.ID, userError(err))
		return
	}

	if len(books) == 0 {
		b.sendText(message.Chat.ID, "No books yet. Add one with /add_book")
		return
	}

	parts := make([]string, 0, len(books))
	for i := range books {
		parts = append(parts, formatBook(&books[i]))
	}
	b.sendText(message.Chat.ID, "Your books:\n\n"+strings.Join(parts, "\n\n"))
}

// handleAddBookStart initiates the new book conversation
func (b *Bot) handleAddBookStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, cmdAddBook)
	b.sendText(message.Chat.ID, "Please enter the book title:")
}

// handleReadStart asks which book the pages were read in
func (b *Bot) handleReadStart(ctx context.Context, message *tgbotapi.Message) {
	b.startBookPicker(ctx, message, cmdRead, "📚 Which book did you read?")
}

// handleEditBookStart asks which book to edit
func (b *Bot) handleEditBookStart(ctx context.Context, message *tgbotapi.Message) {
	b.startBookPicker(ctx, message, cmdEditBook, "✏️ Which book do you want to edit?")
}

// startBookPicker opens a conversation whose first step is choosing a book
func (b *Bot) startBookPicker(ctx context.Context, message *tgbotapi.Message, command, prompt string) {
	books, err := b.tracker.Books(ctx)
	if err != nil {
		b.logger.Error("Failed to list books", zap.Error(err), zap.String("command", command))
		b.sendText(message.Chat.ID, userError(err))
		return
	}

	if len(books) == 0 {
		b.sendText(message.Chat.ID, "No books available. Please add books first with /add_book")
		return
	}

	b.setState(message.From.ID, command)

	msg := tgbotapi.NewMessage(message.Chat.ID, prompt)
	msg.ReplyMarkup = bookKeyboard(books)
	b.sendMessage(msg)
}

// handleProgress sends the progress table, per-book totals and the heatmap
func (b *Bot) handleProgress(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	m, err := b.tracker.ProgressMatrix(ctx)
	if err != nil {
		b.logger.Error("Failed to build progress matrix", zap.Error(err))
		b.sendText(chatID, userError(err))
		return
	}

	if m.Empty() {
		b.sendText(chatID, "No reading progress recorded yet.")
		return
	}

	summary, err := b.tracker.Summary(ctx)
	if err != nil {
		b.logger.Error("Failed to summarize progress", zap.Error(err))
		b.sendText(chatID, userError(err))
		return
	}

	var text strings.Builder
	text.WriteString("📊 <b>Reading progress</b>\n\n<pre>")
	text.WriteString(tgbotapi.EscapeText(tgbotapi.ModeHTML, lastLines(chart.Table(m), maxTableDates)))
	text.WriteString("</pre>\n")
	for _, s := range summary {
		fmt.Fprintf(&text, "\n📖 %s: %d pages over %d days",
			tgbotapi.EscapeText(tgbotapi.ModeHTML, s.Title), s.PagesRead, s.DaysRead)
	}

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(msg)

	cmap := b.sessions.Get(message.From.ID).Colormap
	var buf bytes.Buffer
	if err := chart.RenderHeatmap(&buf, m, cmap); err != nil {
		b.logger.Error("Failed to render heatmap", zap.Error(err), zap.String("colormap", cmap.String()))
		b.sendText(chatID, "Could not draw the heatmap.")
		return
	}
	b.sendPhoto(chatID, "progress.png", buf.Bytes(), "Colormap: "+cmap.String())
}

// handleColormapStart offers the palette choices
func (b *Bot) handleColormapStart(message *tgbotapi.Message) {
	current := b.sessions.Get(message.From.ID).Colormap

	var rows [][]tgbotapi.InlineKeyboardButton
	var currentRow []tgbotapi.InlineKeyboardButton
	for i, c := range chart.Colormaps() {
		label := c.String()
		if c == current {
			label = "✅ " + label
		}
		currentRow = append(currentRow, tgbotapi.NewInlineKeyboardButtonData(label, "cmap:"+c.String()))
		if len(currentRow) == 3 || i == len(chart.Colormaps())-1 {
			rows = append(rows, currentRow)
			currentRow = nil
		}
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "🎨 Choose a colormap for the heatmap:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMessage(msg)
}

// lastLines keeps the header line and the last n lines after it
func lastLines(table string, n int) string {
	lines := strings.Split(table, "\n")
	if len(lines) <= n+1 {
		return table
	}
	kept := append([]string{lines[0], "..."}, lines[len(lines)-n:]...)
	return strings.Join(kept, "\n")
}
