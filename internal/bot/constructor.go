package bot

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tracker/internal/session"
	"tracker/internal/tracker"
)

// NewBot creates a new Telegram bot
func NewBot(token string, svc *tracker.Service, allowedUserIDs []int64, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return newBot(api, svc, allowedUserIDs, logger), nil
}

func newBot(api *tgbotapi.BotAPI, svc *tracker.Service, allowedUserIDs []int64, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	return &Bot{
		api:          api,
		tracker:      svc,
		allowedUsers: allowedUsers,
		states:       make(map[int64]*ConversationState),
		sessions:     session.NewStore(),
		logger:       logger,

		userLocks:      make(map[int64]*sync.Mutex),
		webhookUpdates: make(chan tgbotapi.Update, webhookQueueSize),
	}
}
