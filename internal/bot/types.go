package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tracker/internal/session"
	"tracker/internal/tracker"
)

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	tracker      *tracker.Service
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.Mutex
	sessions     *session.Store
	logger       *zap.Logger

	// one lock per user so a user's updates never run concurrently
	userLocks   map[int64]*sync.Mutex
	userLocksMu sync.Mutex

	// webhook updates, drained in arrival order by a single goroutine
	webhookUpdates chan tgbotapi.Update
}

// webhookQueueSize bounds the updates accepted but not yet handled
const webhookQueueSize = 100

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]interface{}
}

// Conversation commands
const (
	cmdAddBook    = "add_book"
	cmdRead       = "read"
	cmdEditBook   = "edit_book"
	cmdRemoveBook = "remove_book"
)

// stepDone marks a finished conversation, it is dropped on the next update
const stepDone = -1
