package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/logger"
	"taskflow/internal/model"
	"taskflow/internal/service"
)

const (
	cbDonePrefix   = "done:"
	cbDeletePrefix = "delete:"
)

type confirmAction int

const (
	actionComplete confirmAction = iota
	actionDelete
)

type confirmation struct {
	taskID int64
	action confirmAction
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	b.rememberChat(msg.Chat.ID)

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		logger.Debug("bot command", "user", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}
	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}
	if b.getConversation(msg.From.ID) != nil {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Send /newtask to add a task or /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID, strings.EqualFold(strings.TrimSpace(msg.CommandArguments()), "all"))
	case "newtask":
		return b.startNewTask(ctx, msg)
	case "done":
		return b.handleSetStatus(ctx, msg, model.StatusCompleted)
	case "reopen":
		return b.handleSetStatus(ctx, msg, model.StatusActive)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "addcategory":
		return b.handleAddCategory(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "export":
		return b.handleExport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>TaskFlow</b>\n" +
		"• /newtask — add a task step by step\n" +
		"• /tasks — active tasks (/tasks all to include completed)\n" +
		"• /done &lt;id&gt; — mark a task completed\n" +
		"• /reopen &lt;id&gt; — make a task active again\n" +
		"• /delete &lt;id&gt; — delete a task\n" +
		"• /categories — categories and task counts\n" +
		"• /addcategory &lt;name&gt; — add a category\n" +
		"• /stats — totals and completion rate\n" +
		"• /report — today's digest\n" +
		"• /export — download a JSON backup\n" +
		"• /cancel — stop the current dialog"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleSetStatus(ctx context.Context, msg *tgbotapi.Message, status model.Status) error {
	id, ok, err := b.commandTaskID(msg)
	if !ok {
		return err
	}
	task, err := b.svc.Tasks.Update(ctx, id, model.TaskPatch{Status: &status})
	if err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	if status == model.StatusCompleted {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ «%s» completed.", escape(task.Title)))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔄 «%s» is active again.", escape(task.Title)))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id, ok, err := b.commandTaskID(msg)
	if !ok {
		return err
	}
	task, err := b.svc.Tasks.Get(ctx, id)
	if err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	if err := b.svc.Tasks.Delete(ctx, id); err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 «%s» deleted.", escape(task.Title)))
}

// commandTaskID reads the id argument. ok is false when a reply was already sent.
func (b *Bot) commandTaskID(msg *tgbotapi.Message) (int64, bool, error) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return 0, false, b.sendText(msg.Chat.ID, fmt.Sprintf("Give the task id: /%s 12", msg.Command()))
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false, b.sendText(msg.Chat.ID, "The task id must be a number.")
	}
	return id, true, nil
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	categories, err := b.svc.Categories.List(ctx)
	if err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet. Add one with /addcategory Work.")
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Categories</b>\n")
	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("• %s <code>%s</code> · %d task(s)\n", categoryLabel(c.Name), escape(c.Color), c.Count))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleAddCategory(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Give the category name: /addcategory Errands")
	}
	category, err := b.svc.Categories.Create(ctx, model.CategoryInput{Name: name})
	if err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	logger.Info("category created", "id", category.ID, "name", category.Name)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📂 Category %s added.", categoryLabel(category.Name)))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	stats, err := b.svc.Reports.Stats(ctx)
	if err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	text := fmt.Sprintf("📊 <b>Stats</b>\n• Total: %d\n• Active: %d\n• Completed: %d\n• Overdue: %d\n• Completion rate: %d%%",
		stats.Total, stats.Active, stats.Completed, stats.Overdue, stats.CompletionRate)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.svc.Reports.Digest(ctx)
	if err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	var buf bytes.Buffer
	if err := b.svc.Transfer.Export(ctx, &buf); err != nil {
		return b.sendFailure(msg.Chat.ID, err)
	}
	name := fmt.Sprintf("taskflow-backup-%s.json", b.now().UTC().Format("2006-01-02"))
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
	doc.Caption = "📦 Backup of all tasks and categories"
	_, err := b.api.Send(doc)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	b.ackCallback(cb.ID)
	if cb.From == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID

	var action confirmAction
	var prefix string
	switch {
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		action, prefix = actionComplete, cbDonePrefix
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		action, prefix = actionDelete, cbDeletePrefix
	default:
		return nil
	}
	taskID, err := parseTaskID(cb.Data, prefix)
	if err != nil {
		return nil
	}

	task, err := b.svc.Tasks.Get(ctx, taskID)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	if action == actionComplete && task.IsCompleted() {
		return b.sendText(chatID, "This task is already completed.")
	}

	question := fmt.Sprintf("Mark «%s» (#%d) as completed?", escape(task.Title), task.ID)
	if action == actionDelete {
		question = fmt.Sprintf("Delete «%s» (#%d)?", escape(task.Title), task.ID)
	}
	b.setConfirmation(cb.From.ID, confirmation{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, question, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmation) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.applyConfirmation(ctx, msg.Chat.ID, req)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "🔹 Nothing changed.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Please confirm or cancel.", confirmKeyboard())
	}
}

func (b *Bot) applyConfirmation(ctx context.Context, chatID int64, req confirmation) error {
	var err error
	if req.action == actionDelete {
		err = b.svc.Tasks.Delete(ctx, req.taskID)
	} else {
		completed := model.StatusCompleted
		_, err = b.svc.Tasks.Update(ctx, req.taskID, model.TaskPatch{Status: &completed})
	}
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "The task was not found. It may have been deleted already.")
		}
		return b.sendFailure(chatID, err)
	}
	logger.Info("task changed from chat", "task", req.taskID, "delete", req.action == actionDelete)
	return b.sendTaskList(ctx, chatID, false)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuNewTask):
		return true, b.startNewTask(ctx, msg)
	case strings.ToLower(menuTasks):
		return true, b.sendTaskList(ctx, msg.Chat.ID, false)
	case strings.ToLower(menuCategories):
		return true, b.handleCategories(ctx, msg)
	case strings.ToLower(menuStats):
		return true, b.handleStats(ctx, msg)
	case strings.ToLower(menuHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func parseTaskID(data, prefix string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
}
