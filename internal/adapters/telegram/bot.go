package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/taskvault/internal/core/identity"
)

const (
	startText = "Welcome to TaskVaultBot! 🚀\nUse /help to see available commands."
	helpText  = "Available commands:\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n" +
		"/webapp - Open the Mini App"
	webAppPrompt = "Нажмите кнопку для входа:"
	webAppButton = "🚀 Открыть доску"
)

// Sender はメッセージ送信を抽象化します。*tgbotapi.BotAPI が満たします。
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler はボットのコマンドを処理します。
type Handler struct {
	sender    Sender
	webAppURL string
	logger    *zap.Logger
}

// NewHandler は Handler を生成します。webAppURL はスキームを省略できます。
func NewHandler(sender Sender, webAppURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sender: sender, webAppURL: webAppURL, logger: logger}
}

// Run は updates を処理し、コンテキストがキャンセルされるかチャネルが閉じられると戻ります。
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := h.HandleUpdate(update); err != nil {
				h.logger.Warn("failed to handle update",
					zap.Int("update_id", update.UpdateID),
					zap.Error(err),
				)
			}
		}
	}
}

// HandleUpdate は 1 件の更新を処理します。コマンド以外のメッセージは無視します。
func (h *Handler) HandleUpdate(update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}

	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		return h.reply(tgbotapi.NewMessage(chatID, startText))
	case "help":
		return h.reply(tgbotapi.NewMessage(chatID, helpText))
	case "webapp":
		return h.reply(h.webAppMessage(chatID))
	default:
		return nil
	}
}

// webAppMessage はチャット ID を埋め込んだ Mini App へのボタン付きメッセージを作ります。
func (h *Handler) webAppMessage(chatID int64) tgbotapi.MessageConfig {
	link := identity.DeepLink(h.webAppURL, strconv.FormatInt(chatID, 10))
	h.logger.Info("issued webapp link",
		zap.Int64("chat_id", chatID),
		zap.String("token", identity.Encode(strconv.FormatInt(chatID, 10))),
	)

	out := tgbotapi.NewMessage(chatID, webAppPrompt)
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(webAppButton, link)),
	)
	return out
}

func (h *Handler) reply(c tgbotapi.Chattable) error {
	if _, err := h.sender.Send(c); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
