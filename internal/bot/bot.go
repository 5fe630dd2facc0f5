// Package bot is the Telegram driver surface: a thin command layer over
// the store, plus the notification channel for failed durable writes.
package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todoflow/internal/model"
	"todoflow/internal/service"
	"todoflow/internal/store"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageCategory
	stageDueDate
	stageRecurrence
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbRestorePrefix  = "restore:"
)

const (
	btnSkip   = "⏭️ Skip"
	btnCancel = "⏪ Cancel"

	menuNewTask = "➕ New task"
	menuTasks   = "📋 Tasks"
	menuToday   = "📅 Today"
	menuTrash   = "🗑 Trash"
	menuUndo    = "↩️ Undo"
	menuHelp    = "ℹ️ Help"
)

type draft struct {
	stage      conversationStage
	task       model.Task
	categories []model.Category
}

// Bot aggregates the Telegram API with the task store.
type Bot struct {
	api    *tgbotapi.BotAPI
	store  *store.Store
	digest *service.DigestService

	mu            sync.Mutex
	conversations map[int64]*draft
	chats         map[int64]struct{}
}

func New(token string, st *store.Store, digest *service.DigestService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		store:         st,
		digest:        digest,
		conversations: make(map[int64]*draft),
		chats:         make(map[int64]struct{}),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return ctx.Err()
}

// Broadcast sends a plain notification to every known chat. Wired as
// the store's error notification channel.
func (b *Bot) Broadcast(text string) {
	for _, chatID := range b.knownChats() {
		if err := b.sendText(chatID, "⚠️ "+escape(text)); err != nil {
			log.Printf("broadcast: %v", err)
		}
	}
}

// SendDailyDigest pushes the digest to every known chat.
func (b *Bot) SendDailyDigest() {
	text := b.digest.DailyDigest(time.Now())
	for _, chatID := range b.knownChats() {
		if err := b.sendText(chatID, text); err != nil {
			log.Printf("send digest: %v", err)
		}
	}
}

func (b *Bot) knownChats() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	chats := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		chats = append(chats, id)
	}
	return chats
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	b.mu.Lock()
	b.chats[msg.Chat.ID] = struct{}{}
	b.mu.Unlock()

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s", msg.From.ID, msg.Command())
		return b.handleCommand(msg)
	}

	if strings.EqualFold(strings.TrimSpace(msg.Text), btnCancel) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task entry cancelled.")
	}

	switch strings.TrimSpace(msg.Text) {
	case menuNewTask:
		return b.startConversation(msg)
	case menuTasks:
		return b.listTasks(msg.Chat.ID, b.store.FilteredTasks(), "📋 <b>Tasks</b>")
	case menuToday:
		return b.listTasks(msg.Chat.ID, b.store.TodayTasks(), "📅 <b>Today</b>")
	case menuTrash:
		return b.listTrash(msg.Chat.ID)
	case menuUndo:
		return b.handleUndo(msg.Chat.ID)
	case menuHelp:
		return b.sendHelp(msg.Chat.ID)
	}

	if b.hasConversation(msg.From.ID) {
		return b.continueConversation(msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Use the menu below or /help.")
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.sendMenu(msg.Chat.ID, "👋 Hi! I keep your tasks in order.\nUse the menu below.")
	case "newtask":
		return b.startConversation(msg)
	case "tasks":
		return b.listTasks(msg.Chat.ID, b.store.FilteredTasks(), "📋 <b>Tasks</b>")
	case "today":
		return b.listTasks(msg.Chat.ID, b.store.TodayTasks(), "📅 <b>Today</b>")
	case "trash":
		return b.listTrash(msg.Chat.ID)
	case "undo":
		return b.handleUndo(msg.Chat.ID)
	case "digest":
		return b.sendText(msg.Chat.ID, b.digest.DailyDigest(time.Now()))
	case "help":
		return b.sendHelp(msg.Chat.ID)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task entry cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command, see /help.")
	}
}

func (b *Bot) sendHelp(chatID int64) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /newtask — add a task step by step\n" +
		"• /tasks — list tasks, complete or delete by button\n" +
		"• /today — today's working set\n" +
		"• /trash — deleted tasks, restore by button\n" +
		"• /undo — revert the last change (within 5 seconds)\n" +
		"• /digest — today's digest on demand\n" +
		"• /cancel — abort the current entry"
	return b.sendText(chatID, text)
}

func (b *Bot) handleUndo(chatID int64) error {
	if b.store.Undo() {
		return b.sendText(chatID, "↩️ Reverted the last change.")
	}
	return b.sendText(chatID, "Nothing to undo — the window may have expired.")
}

// ---- new-task conversation ----

func (b *Bot) startConversation(msg *tgbotapi.Message) error {
	b.mu.Lock()
	b.conversations[msg.From.ID] = &draft{
		stage:      stageTitle,
		task:       model.Task{Recurrence: model.Recurrence{Kind: model.RecurNone}},
		categories: b.store.Categories(),
	}
	b.mu.Unlock()
	return b.sendOptions(msg.Chat.ID, "✏️ What is the task called?")
}

func (b *Bot) continueConversation(msg *tgbotapi.Message) error {
	b.mu.Lock()
	d := b.conversations[msg.From.ID]
	b.mu.Unlock()
	if d == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)

	switch d.stage {
	case stageTitle:
		if text == "" {
			return b.sendOptions(msg.Chat.ID, "The title can't be empty, try again.")
		}
		d.task.Title = text
		d.stage = stageCategory
		return b.askCategory(msg.Chat.ID, d)

	case stageCategory:
		if text != btnSkip {
			for _, c := range d.categories {
				if strings.EqualFold(c.Name, text) {
					d.task.CategoryID = c.ID
					break
				}
			}
		}
		d.stage = stageDueDate
		return b.sendOptions(msg.Chat.ID, "📆 Due date? (YYYY-MM-DD)", btnSkip)

	case stageDueDate:
		if text != btnSkip {
			due, err := time.ParseInLocation("2006-01-02", text, time.Local)
			if err != nil {
				return b.sendOptions(msg.Chat.ID, "I need a date like 2025-03-01, or skip.", btnSkip)
			}
			d.task.DueDate = &due
		}
		d.stage = stageRecurrence
		return b.sendOptions(msg.Chat.ID, "♻️ Repeat?",
			string(model.RecurDaily), string(model.RecurWeekdays),
			string(model.RecurWeekly), string(model.RecurMonthly), btnSkip)

	case stageRecurrence:
		if text != btnSkip {
			kind := model.RecurrenceKind(text)
			if !kind.Valid() {
				return b.sendOptions(msg.Chat.ID, "Pick one of the buttons, or skip.", btnSkip)
			}
			d.task.Recurrence.Kind = kind
		}
		b.clearConversation(msg.From.ID)

		d.task.IsToday = d.task.DueDate == nil // no date means "do it today"
		created, err := b.store.AddTask(d.task)
		if err != nil {
			return b.sendMenu(msg.Chat.ID, fmt.Sprintf("Could not add the task: %s", escape(err.Error())))
		}
		if created == nil {
			return b.sendMenu(msg.Chat.ID, "Looks like a double submit — already added.")
		}
		return b.sendMenu(msg.Chat.ID, fmt.Sprintf("✅ Added <b>%s</b>.", escape(created.Title)))
	}

	return nil
}

func (b *Bot) askCategory(chatID int64, d *draft) error {
	names := make([]string, 0, len(d.categories)+1)
	for _, c := range d.categories {
		names = append(names, c.Name)
	}
	names = append(names, btnSkip)
	return b.sendOptions(chatID, "📂 Category?", names...)
}

// ---- task lists ----

func (b *Bot) listTasks(chatID int64, tasks []model.Task, header string) error {
	if len(tasks) == 0 {
		return b.sendText(chatID, header+"\n— empty")
	}

	catNames := make(map[string]string)
	for _, c := range b.store.Categories() {
		catNames[c.ID] = c.Name
	}

	if err := b.sendText(chatID, header); err != nil {
		return err
	}
	for _, t := range tasks {
		var sb strings.Builder
		if t.Completed {
			sb.WriteString("✅ ")
		}
		if t.Emoji != "" {
			sb.WriteString(t.Emoji + " ")
		}
		sb.WriteString(escape(t.Title))
		if name := catNames[t.CategoryID]; name != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(name)))
		}
		if t.DueDate != nil {
			sb.WriteString("\n⏰ " + t.DueDate.Format("2006-01-02"))
			if t.DueTime != "" {
				sb.WriteString(" " + t.DueTime)
			}
		}

		out := tgbotapi.NewMessage(chatID, sb.String())
		out.ParseMode = tgbotapi.ModeHTML
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Done", cbCompletePrefix+t.ID),
				tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", cbDeletePrefix+t.ID),
			),
		)
		if _, err := b.api.Send(out); err != nil {
			return fmt.Errorf("send task: %w", err)
		}
	}
	return nil
}

func (b *Bot) listTrash(chatID int64) error {
	tasks := b.store.DeletedTasks()
	if len(tasks) == 0 {
		return b.sendText(chatID, "🗑 <b>Trash</b>\n— empty")
	}
	if err := b.sendText(chatID, "🗑 <b>Trash</b>"); err != nil {
		return err
	}
	for _, t := range tasks {
		out := tgbotapi.NewMessage(chatID, escape(t.Title))
		out.ParseMode = tgbotapi.ModeHTML
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("♻️ Restore", cbRestorePrefix+t.ID),
			),
		)
		if _, err := b.api.Send(out); err != nil {
			return fmt.Errorf("send trash entry: %w", err)
		}
	}
	return nil
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID

	var err error
	var ack string
	switch {
	case strings.HasPrefix(cb.Data, cbCompletePrefix):
		err = b.store.ToggleTaskComplete(strings.TrimPrefix(cb.Data, cbCompletePrefix))
		ack = "Toggled"
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		err = b.store.DeleteTask(strings.TrimPrefix(cb.Data, cbDeletePrefix))
		ack = "Moved to trash"
	case strings.HasPrefix(cb.Data, cbRestorePrefix):
		err = b.store.RestoreTask(strings.TrimPrefix(cb.Data, cbRestorePrefix))
		ack = "Restored"
	default:
		return nil
	}

	if err != nil {
		if sendErr := b.sendText(chatID, escape(err.Error())); sendErr != nil {
			return sendErr
		}
	}
	callback := tgbotapi.NewCallback(cb.ID, ack)
	if _, err := b.api.Request(callback); err != nil {
		return fmt.Errorf("ack callback: %w", err)
	}
	return nil
}

// ---- plumbing ----

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID] != nil
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) sendMenu(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuNewTask),
			tgbotapi.NewKeyboardButton(menuTasks),
			tgbotapi.NewKeyboardButton(menuToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuTrash),
			tgbotapi.NewKeyboardButton(menuUndo),
			tgbotapi.NewKeyboardButton(menuHelp),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send menu: %w", err)
	}
	return nil
}

func (b *Bot) sendOptions(chatID int64, text string, options ...string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	rows := make([][]tgbotapi.KeyboardButton, 0, len(options)+1)
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(opt)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)))
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send options: %w", err)
	}
	return nil
}

func escape(s string) string {
	return html.EscapeString(s)
}
