package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			msg := tgbotapi.NewMessage(message.Chat.ID, "An error occurred while processing your request. Please try again.")
			b.sendMessage(msg)
		}
	}()

	userID := message.From.ID
	ctx := context.Background()

	// Check if user is in a conversation
	if state := b.getState(userID); state != nil {
		// If conversation is already complete (Step == -1), clean it up and process as new command
		if state.Step == stepDone || message.IsCommand() {
			// Any command interrupts an ongoing conversation
			b.clearState(userID)
		} else {
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "books":
		b.handleBooks(ctx, message)
	case "add_book":
		b.handleAddBookStart(message)
	case "read":
		b.handleReadStart(ctx, message)
	case "edit_book":
		b.handleEditBookStart(ctx, message)
	case "remove_book":
		b.handleRemoveBookStart(ctx, message)
	case "progress":
		b.handleProgress(ctx, message)
	case "colormap":
		b.handleColormapStart(message)
	default:
		msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /start to see available commands.")
		b.sendMessage(msg)
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	userID := query.From.ID
	ctx := context.Background()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Debug("Failed to answer callback", zap.Error(err))
		}
	}

	if query.Message == nil {
		return
	}

	data := query.Data

	// Colormap choice lives in the session, not in a conversation
	if strings.HasPrefix(data, "cmap:") {
		b.handleColormapCallback(query)
		return
	}

	// Check if user is in a conversation
	state := b.getState(userID)
	if state == nil {
		return
	}

	// Handle callback based on prefix
	switch {
	case strings.HasPrefix(data, "book:"):
		b.handleBookCallback(ctx, query, state)
	case strings.HasPrefix(data, "date:"):
		b.handleDateCallback(ctx, query, state)
	case data == "skip":
		b.handleSkipCallback(ctx, query, state)
	case strings.HasPrefix(data, "remove:"):
		b.handleRemoveCallback(ctx, query, state)
	}

	// Clean up completed conversations
	if state.Step == stepDone {
		b.clearState(userID)
	}
}

func (b *Bot) getState(userID int64) *ConversationState {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	return b.states[userID]
}

func (b *Bot) setState(userID int64, command string) *ConversationState {
	state := &ConversationState{
		Command: command,
		Step:    1,
		Data:    make(map[string]interface{}),
	}

	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = state
	return state
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}
