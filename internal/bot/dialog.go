package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/logger"
	"taskflow/internal/model"
	"taskflow/internal/service"
	"taskflow/internal/transfer"
)

type stage int

const (
	stageTitle stage = iota
	stageCategory
	stagePriority
	stageDueDate
)

// conversation is the state of one /newtask dialog.
type conversation struct {
	stage stage
	input model.TaskInput
}

func (b *Bot) startNewTask(ctx context.Context, msg *tgbotapi.Message) error {
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversation{stage: stageTitle})
	logger.Debug("new task dialog", "user", msg.From.ID)
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1/4:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The title cannot be empty.", cancelKeyboard())
		}
		if utf8.RuneCountInString(text) > transfer.MaxTitleLength {
			return b.sendWithReplyMarkup(chatID,
				fmt.Sprintf("The title is too long, keep it under %d characters.", transfer.MaxTitleLength), cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageCategory
		return b.askCategory(ctx, chatID)

	case stageCategory:
		if text == "" {
			return b.askCategory(ctx, chatID)
		}
		state.input.Category = text
		category, err := b.svc.Categories.Lookup(ctx, text)
		switch {
		case err == nil:
			state.input.Category = category.Name
		case !errors.Is(err, service.ErrNotFound):
			return b.sendFailure(chatID, err)
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "<b>Step 3/4:</b> priority?", priorityKeyboard())

	case stagePriority:
		if !isSkipInput(text) {
			priority, ok := parsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "Pick low, medium or high.", priorityKeyboard())
			}
			state.input.Priority = priority
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(chatID,
			"<b>Step 4/4:</b> due date as <code>2026-11-30</code>, or «today» / «tomorrow» (or skip).", skipKeyboard())

	case stageDueDate:
		if !isSkipInput(text) {
			due, ok := parseDueInput(text, b.now())
			if !ok {
				return b.sendWithReplyMarkup(chatID, "I cannot read that date. Use <code>2026-11-30</code> or skip.", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		b.clearConversation(msg.From.ID)
		return b.finishTask(ctx, chatID, state.input)

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "The dialog was reset. Start again with /newtask.")
	}
}

func (b *Bot) askCategory(ctx context.Context, chatID int64) error {
	categories, err := b.svc.Categories.List(ctx)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	return b.sendWithReplyMarkup(chatID, "<b>Step 2/4:</b> pick a category or type one.", categoryKeyboard(categories))
}

func (b *Bot) finishTask(ctx context.Context, chatID int64, in model.TaskInput) error {
	if err := service.ValidateTaskInput(in); err != nil {
		return b.sendFailure(chatID, err)
	}
	task, err := b.svc.Tasks.Create(ctx, in)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	logger.Info("task created from chat", "task", task.ID, "category", task.Category)

	var sb strings.Builder
	sb.WriteString("✅ <b>Task saved</b>\n")
	sb.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	sb.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	sb.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", categoryLabel(task.Category)))
	sb.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.DueDate != nil {
		sb.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", escape(*task.DueDate)))
	}
	if _, err := b.svc.Categories.Lookup(ctx, task.Category); errors.Is(err, service.ErrNotFound) {
		sb.WriteString("\nThis category is not in your list yet. Add it with /addcategory.")
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func parsePriority(text string) (model.Priority, bool) {
	value := strings.ToLower(strings.TrimSpace(text))
	for _, p := range []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh} {
		if value == string(p) || value == strings.ToLower(priorityLabel(p)) {
			return p, true
		}
	}
	return "", false
}

// parseDueInput accepts YYYY-MM-DD, "today" and "tomorrow".
func parseDueInput(text string, now time.Time) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "today":
		return now.Format("2006-01-02"), true
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), true
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(text))
	if err != nil {
		return "", false
	}
	return parsed.Format("2006-01-02"), true
}
