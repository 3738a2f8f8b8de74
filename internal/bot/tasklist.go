package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/model"
	"taskflow/internal/service"
	"taskflow/internal/taskview"
)

const noCategory = "Uncategorized"

// sendTaskList renders tasks grouped by category, each with complete and delete buttons.
func (b *Bot) sendTaskList(ctx context.Context, chatID int64, includeCompleted bool) error {
	tasks, err := b.svc.Tasks.List(ctx)
	if err != nil {
		return b.sendFailure(chatID, err)
	}
	if !includeCompleted {
		tasks = taskview.Filter(tasks, taskview.Criteria{Status: string(model.StatusActive)})
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No active tasks. Add one with /newtask.")
	}

	text, buttons := renderTaskList(tasks, b.now)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(msg)
	return err
}

func renderTaskList(tasks []model.Task, clock func() time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	now := clock()

	groups := make(map[string][]model.Task)
	var names []string
	for _, task := range taskview.Sort(tasks, taskview.SortDue) {
		name := strings.TrimSpace(task.Category)
		if name == "" {
			name = noCategory
		}
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], task)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == noCategory {
			return false
		}
		if names[j] == noCategory {
			return true
		}
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	var sb strings.Builder
	sb.WriteString("📋 <b>Tasks</b>\n")
	sb.WriteString("Tap ✅ to complete a task or 🗑 to delete it.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("<b>%s</b>\n", categoryLabel(name)))
		for _, task := range groups[name] {
			sb.WriteString(service.FormatTaskLine(task, now))
			if task.IsCompleted() {
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)),
					fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
			))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String()), buttons
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "work":
		icon = "💼"
	case "personal":
		icon = "🧩"
	case "shopping":
		icon = "🛒"
	case "health":
		icon = "🩺"
	case strings.ToLower(noCategory):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(base))
}
