package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/logger"
	"taskflow/internal/service"
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram front-end of the task services.
type Bot struct {
	api telegramAPI
	svc *service.Services
	now func() time.Time

	// allowed restricts the bot to these chats; empty means any private chat.
	allowed map[int64]bool

	mu            sync.Mutex
	conversations map[int64]*conversation
	confirmations map[int64]confirmation
	chats         map[int64]struct{}
}

func New(token string, svc *service.Services, chatIDs []int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	logger.Info("bot authorized", "account", api.Self.UserName)
	return newBot(api, svc, chatIDs), nil
}

func newBot(api telegramAPI, svc *service.Services, chatIDs []int64) *Bot {
	b := &Bot{
		api:           api,
		svc:           svc,
		now:           time.Now,
		allowed:       make(map[int64]bool, len(chatIDs)),
		conversations: make(map[int64]*conversation),
		confirmations: make(map[int64]confirmation),
		chats:         make(map[int64]struct{}),
	}
	for _, id := range chatIDs {
		b.allowed[id] = true
		b.chats[id] = struct{}{}
	}
	return b
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || !b.chatAllowed(cb.Message.Chat) {
			return
		}
		if err := b.handleCallback(ctx, cb); err != nil {
			logger.Error("handle callback", "chat", cb.Message.Chat.ID, "error", err)
		}
	case update.Message != nil:
		msg := update.Message
		if !b.chatAllowed(msg.Chat) {
			return
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			logger.Error("handle message", "chat", msg.Chat.ID, "error", err)
		}
	}
}

func (b *Bot) chatAllowed(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	if len(b.allowed) == 0 {
		return chat.IsPrivate()
	}
	return b.allowed[chat.ID]
}

// SendDigest sends the daily digest to every configured or previously seen chat.
func (b *Bot) SendDigest(ctx context.Context) error {
	text, err := b.svc.Reports.Digest(ctx)
	if err != nil {
		return err
	}
	for _, chatID := range b.knownChats() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(chatID, text); err != nil {
			logger.Warn("send digest", "chat", chatID, "error", err)
		}
	}
	return nil
}

func (b *Bot) rememberChat(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chatID] = struct{}{}
}

func (b *Bot) knownChats() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		ids = append(ids, id)
	}
	return ids
}

func (b *Bot) getConfirmation(userID int64) (confirmation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// sendFailure reports err the way every front-end does: a bold title and a description.
func (b *Bot) sendFailure(chatID int64, err error) error {
	f := service.Describe(err)
	if f.Message == "Operation failed" {
		logger.Error("bot operation failed", "chat", chatID, "error", err)
	}
	return b.sendText(chatID, fmt.Sprintf("❌ <b>%s</b>\n%s", escape(f.Message), escape(f.Description)))
}

func (b *Bot) ackCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		logger.Warn("callback ack", "error", err)
	}
}
