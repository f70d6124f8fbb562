package bot

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookPath is where Telegram delivers updates in webhook mode
const WebhookPath = "/telegram-webhook"

// WebhookHandler decodes Telegram updates and queues them so Telegram gets
// its 200 quickly. A full queue answers 503 and Telegram retries later.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			b.logger.Warn("Error decoding webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		select {
		case b.webhookUpdates <- update:
			w.WriteHeader(http.StatusOK)
		default:
			b.logger.Warn("Webhook queue full, rejecting update", zap.Int("update_id", update.UpdateID))
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}
