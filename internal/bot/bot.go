package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"task-tracker/internal/calendar"
	"task-tracker/internal/config"
	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/logging"
	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

const (
	cbConfirmTask     = "task:ok:"
	cbCancelTask      = "task:no:"
	cbConfirmCategory = "cat:ok:"
	cbCancelCategory  = "cat:no:"
)

const (
	btnToday            = "📅 Today"
	btnConfirm          = "✅ Confirm"
	btnCancel           = "↩️ Cancel"
	btnCancelDialog     = "⏪ Stop"
	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelChart      = "📊 Chart"
	menuLabelCategories = "📂 Categories"
)

// Bot serves the task tracker over Telegram, one workspace per chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	remote Remote
	tokens TokenStore
	ix     *calendar.Indexer
	config *config.Config
	logger *logrus.Logger
	log    *logrus.Entry
	now    func() time.Time

	mu    sync.Mutex
	chats map[int64]*workspace
}

func New(cfg *config.Config, remote Remote, tokens TokenStore, ix *calendar.Indexer, log *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	entry := logging.Component(log, "bot")
	entry.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{
		api:    api,
		remote: remote,
		tokens: tokens,
		ix:     ix,
		config: cfg,
		logger: log,
		log:    entry,
		now:    time.Now,
		chats:  make(map[int64]*workspace),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.WithError(err).Warn("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.WithError(err).Warn("handle message")
			}
		}
	}

	return nil
}

func (b *Bot) workspaceFor(ctx context.Context, chatID int64) *workspace {
	b.mu.Lock()
	ws, ok := b.chats[chatID]
	if !ok {
		opts := service.CoordinatorOptions{ConfirmationTTL: b.config.ConfirmationTTL, Now: b.now}
		ws = newWorkspace(chatID, b.remote, b.tokens, b.ix, b.logger, opts, b.notify)
		b.chats[chatID] = ws
	}
	b.mu.Unlock()

	if err := ws.restore(ctx); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("restore session")
	}
	return ws
}

func (b *Bot) notify(chatID int64, title, message string) {
	text := fmt.Sprintf("⚠️ <b>%s</b>\n%s", escape(title), escape(message))
	if err := b.sendText(chatID, text); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("send notification")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	ws := b.workspaceFor(ctx, msg.Chat.ID)

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		ws.clearConversation()
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{"chat_id": msg.Chat.ID, "command": msg.Command()}).Info("command received")
		return b.handleCommand(ctx, ws, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, ws, msg); handled {
		return err
	}

	if ws.getConversation() != nil {
		return b.handleConversation(ctx, ws, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ws, msg)
	case "help":
		return b.handleHelp(msg)
	case "register":
		return b.handleRegister(ctx, ws, msg)
	case "login":
		return b.handleLogin(ctx, ws, msg)
	case "logout":
		return b.handleLogout(ctx, ws, msg)
	case "tasks":
		return b.handleListTasks(ctx, ws, msg.Chat.ID)
	case "filter":
		return b.handleFilter(ctx, ws, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, ws, msg)
	case "done":
		return b.handleDone(ctx, ws, msg)
	case "delete":
		return b.handleDelete(ws, msg)
	case "chart":
		return b.handleChart(ctx, ws, msg.Chat.ID)
	case "categories":
		return b.handleCategories(ctx, ws, msg.Chat.ID)
	case "addcategory":
		return b.handleAddCategory(ctx, ws, msg)
	case "delcategory":
		return b.handleDeleteCategory(ctx, ws, msg)
	case "cancel":
		ws.clearConversation()
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ws *workspace, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if session := ws.sessions.Current(); session.Active() && session.User.Name != "" {
		name = session.User.Name
	}
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your tasks in sync and chart your week.</b>\n\n%s", escape(name), helpText)
	if !ws.loggedIn() {
		text += "\n\nStart with /login or /register."
	}
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /register &lt;email&gt; &lt;password&gt; &lt;password&gt; &lt;name&gt; - create an account\n" +
	"• /login &lt;email&gt; &lt;password&gt; - sign in\n" +
	"• /logout - sign out\n" +
	"• /tasks - show the task list\n" +
	"• /filter category=&lt;name&gt; date=&lt;YYYY-MM-DD|today&gt; name=&lt;prefix&gt; - narrow the list (/filter reset clears it)\n" +
	"• /newtask - add a task step by step\n" +
	"• /done &lt;n&gt; - toggle task n as completed\n" +
	"• /delete &lt;n&gt; - remove task n\n" +
	"• /chart - weekly pending and completed chart\n" +
	"• /categories, /addcategory &lt;name&gt;, /delcategory &lt;name&gt;\n" +
	"• /cancel - stop the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleRegister(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	b.deleteMessage(msg)
	in, err := parseRegistration(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /register &lt;email&gt; &lt;password&gt; &lt;password&gt; &lt;name&gt;")
	}
	if err := ws.sessions.Register(ctx, in); err != nil {
		return b.sendText(msg.Chat.ID, "Registration failed: "+escape(appErrors.UserMessage(err)))
	}
	return b.sendText(msg.Chat.ID, "✅ Account created. Sign in with /login.")
}

func (b *Bot) handleLogin(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	b.deleteMessage(msg)
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /login &lt;email&gt; &lt;password&gt;")
	}

	session, err := ws.login(ctx, fields[0], fields[1])
	if err != nil {
		return b.sendText(msg.Chat.ID, "Login failed: "+escape(appErrors.UserMessage(err)))
	}
	b.log.WithFields(logrus.Fields{"chat_id": msg.Chat.ID, "user_id": session.User.ID}).Info("chat logged in")

	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Signed in as <b>%s</b>.", escape(session.User.Name))); err != nil {
		return err
	}
	return b.handleListTasks(ctx, ws, msg.Chat.ID)
}

func (b *Bot) handleLogout(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	ws.forget()
	if err := ws.sessions.Logout(ctx); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "👋 Signed out.")
}

func (b *Bot) requireLogin(ws *workspace, chatID int64) bool {
	if ws.loggedIn() {
		return true
	}
	if err := b.sendText(chatID, "Sign in first: /login &lt;email&gt; &lt;password&gt;"); err != nil {
		b.log.WithError(err).Warn("send login hint")
	}
	return false
}

func (b *Bot) handleListTasks(ctx context.Context, ws *workspace, chatID int64) error {
	if !b.requireLogin(ws, chatID) {
		return nil
	}
	snap, err := ws.tasks.Refresh(ctx)
	if err != nil {
		return nil
	}
	return b.sendTaskList(chatID, snap)
}

func (b *Bot) sendTaskList(chatID int64, snap service.Snapshot) error {
	var sb strings.Builder
	sb.WriteString("📋 <b>Tasks</b>")
	if label := filterLabel(snap.Filter); label != "" {
		sb.WriteString(" (" + escape(label) + ")")
	}
	if len(snap.Tasks) > 0 {
		sb.WriteString(fmt.Sprintf(" %d/%d done", len(snap.CompletedIDs()), len(snap.Tasks)))
	}
	sb.WriteString("\n")
	sb.WriteString(escape(service.FormatTaskList(snap.Tasks, b.ix, b.now())))
	return b.sendText(chatID, sb.String())
}

func (b *Bot) handleFilter(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	if !b.requireLogin(ws, msg.Chat.ID) {
		return nil
	}
	filter, err := parseFilterArgs(msg.CommandArguments(), b.ix, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	snap, err := ws.tasks.FetchAll(ctx, filter)
	if err != nil {
		return nil
	}
	return b.sendTaskList(msg.Chat.ID, snap)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	if !b.requireLogin(ws, msg.Chat.ID) {
		return nil
	}
	if _, err := ws.categories.Refresh(ctx); err != nil {
		return nil
	}
	if len(ws.categories.List()) == 0 {
		return b.sendText(msg.Chat.ID, "Add a category first: /addcategory &lt;name&gt;")
	}

	ws.setConversation(&conversationState{stage: stageName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	state := ws.getConversation()
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The name cannot be empty.", cancelKeyboard())
		}
		state.draft.Name = text
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category.", categoryKeyboard(ws.categories.Names()))
	case stageCategory:
		category, ok := ws.categories.Find(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Unknown category. Pick one from the keyboard.", categoryKeyboard(ws.categories.Names()))
		}
		state.draft.Category = category.Name
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "❗ Priority?", priorityKeyboard())
	case stagePriority:
		priority, ok := parsePriority(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Alta, Media or Baixa.", priorityKeyboard())
		}
		state.draft.Priority = priority
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Date as <code>2024-03-04</code>, or Today.", dateKeyboard())
	case stageDate:
		day, err := parseDayInput(text, b.ix, b.now())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2024-03-04</code> or Today.", dateKeyboard())
		}
		state.draft.Date = day.Timestamp(b.ix.Location())
		ws.clearConversation()
		return b.finishTaskCreation(ctx, ws, msg.Chat.ID, state.draft)
	default:
		ws.clearConversation()
		return b.sendText(msg.Chat.ID, "Input reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, ws *workspace, chatID int64, draft model.Task) error {
	task, err := ws.tasks.Create(ctx, draft)
	if err != nil {
		return nil
	}
	b.log.WithFields(logrus.Fields{"chat_id": chatID, "task_id": task.ID}).Info("task created")

	summary := fmt.Sprintf("✅ <b>Saved</b>\n%s", escape(service.FormatTaskLine(0, task, b.ix, b.now())))
	if err := b.sendText(chatID, summary); err != nil {
		return err
	}
	return b.sendTaskList(chatID, ws.tasks.Snapshot())
}

func (b *Bot) handleDone(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	if !b.requireLogin(ws, msg.Chat.ID) {
		return nil
	}
	n, err := parseIndex(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task number from /tasks: /done 2")
	}
	target, err := ws.taskAt(n)
	if err != nil {
		return b.sendText(msg.Chat.ID, "No such task. Check /tasks.")
	}

	task, err := ws.tasks.ToggleCompleted(ctx, target.ID)
	if err != nil {
		return nil
	}
	state := "reopened"
	if task.Active {
		state = "completed"
	}
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("✅ «%s» %s.", escape(task.Name), state)); err != nil {
		return err
	}
	return b.sendTaskList(msg.Chat.ID, ws.tasks.Snapshot())
}

func (b *Bot) handleDelete(ws *workspace, msg *tgbotapi.Message) error {
	if !b.requireLogin(ws, msg.Chat.ID) {
		return nil
	}
	n, err := parseIndex(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task number from /tasks: /delete 2")
	}
	target, err := ws.taskAt(n)
	if err != nil {
		return b.sendText(msg.Chat.ID, "No such task. Check /tasks.")
	}

	tok, err := ws.tasks.ProposeRemoval(target.ID)
	if err != nil {
		return nil
	}
	text := fmt.Sprintf("Remove task «%s»?", escape(tok.Label))
	return b.sendWithReplyMarkup(msg.Chat.ID, text, confirmKeyboard(cbConfirmTask, cbCancelTask, tok.ID))
}

func (b *Bot) handleChart(ctx context.Context, ws *workspace, chatID int64) error {
	if !b.requireLogin(ws, chatID) {
		return nil
	}
	snap, err := ws.tasks.Refresh(ctx)
	if err != nil {
		return nil
	}
	return b.sendChart(chatID, snap)
}

func (b *Bot) sendChart(chatID int64, snap service.Snapshot) error {
	var sb strings.Builder
	sb.WriteString("📊 <b>Week chart</b>")
	if label := filterLabel(snap.Filter); label != "" {
		sb.WriteString(" (" + escape(label) + ")")
	}
	sb.WriteString("\n<pre>")
	sb.WriteString(escape(service.FormatWeeklyChart(snap.Matrix)))
	sb.WriteString("</pre>")
	return b.sendText(chatID, sb.String())
}

func (b *Bot) handleCategories(ctx context.Context, ws *workspace, chatID int64) error {
	if !b.requireLogin(ws, chatID) {
		return nil
	}
	categories, err := ws.categories.Refresh(ctx)
	if err != nil {
		return nil
	}
	if len(categories) == 0 {
		return b.sendText(chatID, "No categories yet. Add one with /addcategory &lt;name&gt;.")
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range categories {
		sb.WriteString(fmt.Sprintf("• %s\n", escape(cat.Name)))
	}
	return b.sendText(chatID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleAddCategory(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	if !b.requireLogin(ws, msg.Chat.ID) {
		return nil
	}
	name := strings.TrimSpace(msg.CommandArguments())
	if err := ws.categories.Add(ctx, name); err != nil {
		return nil
	}
	return b.handleCategories(ctx, ws, msg.Chat.ID)
}

func (b *Bot) handleDeleteCategory(ctx context.Context, ws *workspace, msg *tgbotapi.Message) error {
	if !b.requireLogin(ws, msg.Chat.ID) {
		return nil
	}
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Usage: /delcategory &lt;name&gt;")
	}
	if _, err := ws.categories.Refresh(ctx); err != nil {
		return nil
	}
	tok, err := ws.categories.ProposeRemoval(name)
	if err != nil {
		return nil
	}
	text := fmt.Sprintf("Remove category «%s»?", escape(tok.Label))
	return b.sendWithReplyMarkup(msg.Chat.ID, text, confirmKeyboard(cbConfirmCategory, cbCancelCategory, tok.ID))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.WithError(err).Warn("callback ack")
	}

	chatID := cb.Message.Chat.ID
	ws := b.workspaceFor(ctx, chatID)
	prefix, tokenID, ok := parseCallback(cb.Data)
	if !ok {
		return nil
	}
	b.log.WithFields(logrus.Fields{"chat_id": chatID, "action": prefix}).Info("callback received")

	switch prefix {
	case cbConfirmTask:
		if err := ws.tasks.ConfirmRemoval(ctx, tokenID); err != nil {
			return b.closePrompt(cb.Message, "Task not removed.")
		}
		snap := ws.tasks.Reaggregate()
		if err := b.closePrompt(cb.Message, "🗑 Task removed."); err != nil {
			return err
		}
		return b.sendTaskList(chatID, snap)
	case cbCancelTask:
		ws.tasks.CancelRemoval(tokenID)
		return b.closePrompt(cb.Message, "↩️ Kept.")
	case cbConfirmCategory:
		if err := ws.categories.ConfirmRemoval(ctx, tokenID); err != nil {
			return b.closePrompt(cb.Message, "Category not removed.")
		}
		if err := b.closePrompt(cb.Message, "🗑 Category removed."); err != nil {
			return err
		}
		return b.handleCategories(ctx, ws, chatID)
	case cbCancelCategory:
		ws.categories.CancelRemoval(tokenID)
		return b.closePrompt(cb.Message, "↩️ Kept.")
	}
	return nil
}

// closePrompt replaces a confirmation prompt so its buttons cannot be pressed twice.
func (b *Bot) closePrompt(msg *tgbotapi.Message, text string) error {
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) handleMenuAlias(ctx context.Context, ws *workspace, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.startNewTaskConversation(ctx, ws, msg)
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, ws, msg.Chat.ID)
	case menuLabelChart:
		return true, b.handleChart(ctx, ws, msg.Chat.ID)
	case menuLabelCategories:
		return true, b.handleCategories(ctx, ws, msg.Chat.ID)
	default:
		return false, nil
	}
}

// SendWeeklyReports pushes the week chart to every chat with a stored token.
func (b *Bot) SendWeeklyReports(ctx context.Context) error {
	keys, err := b.tokens.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	var errs []error
	for _, key := range keys {
		chatID, ok := chatIDFromKey(key)
		if !ok {
			continue
		}
		ws := b.workspaceFor(ctx, chatID)
		if !ws.loggedIn() {
			continue
		}

		ws.muted.Store(true)
		snap, err := ws.tasks.Refresh(ctx)
		ws.muted.Store(false)
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		if err := b.sendChart(chatID, snap); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// RefreshAll re-fetches tasks and categories of every logged-in chat seen
// since start.
func (b *Bot) RefreshAll(ctx context.Context) error {
	b.mu.Lock()
	chats := make([]*workspace, 0, len(b.chats))
	for _, ws := range b.chats {
		chats = append(chats, ws)
	}
	b.mu.Unlock()

	var errs []error
	for _, ws := range chats {
		if !ws.loggedIn() {
			continue
		}
		ws.muted.Store(true)
		_, taskErr := ws.tasks.Refresh(ctx)
		_, catErr := ws.categories.Refresh(ctx)
		ws.muted.Store(false)
		if err := errors.Join(taskErr, catErr); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", ws.chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bot) deleteMessage(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.WithError(err).Debug("delete credentials message")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func parseIndex(args string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("index %d out of range", n)
	}
	return n, nil
}

func parseRegistration(args string) (model.Registration, error) {
	fields := strings.Fields(args)
	if len(fields) < 4 {
		return model.Registration{}, errors.New("expected email, password, confirmation and name")
	}
	return model.Registration{
		Email:           fields[0],
		Password:        fields[1],
		ConfirmPassword: fields[2],
		Name:            strings.Join(fields[3:], " "),
	}, nil
}

// parseFilterArgs reads "category=X date=YYYY-MM-DD|today name=prefix" or
// "reset". Omitted keys do not filter.
func parseFilterArgs(args string, ix *calendar.Indexer, now time.Time) (service.TaskFilter, error) {
	filter := service.AllTasks
	fields := strings.Fields(args)
	if len(fields) == 0 || (len(fields) == 1 && strings.EqualFold(fields[0], "reset")) {
		return filter, nil
	}

	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok || value == "" {
			return service.TaskFilter{}, fmt.Errorf("expected key=value, got %q", field)
		}
		switch strings.ToLower(key) {
		case "category":
			filter.Category = value
		case "date":
			day, err := parseDayInput(value, ix, now)
			if err != nil {
				return service.TaskFilter{}, fmt.Errorf("bad date %q, use YYYY-MM-DD or today", value)
			}
			filter.Day = day
		case "name":
			filter.NamePrefix = value
		default:
			return service.TaskFilter{}, fmt.Errorf("unknown filter %q", key)
		}
	}
	return filter, nil
}

func parseDayInput(text string, ix *calendar.Indexer, now time.Time) (calendar.Day, error) {
	value := strings.TrimSpace(text)
	if value == btnToday || strings.EqualFold(value, "today") {
		return ix.Today(now), nil
	}
	return calendar.ParseDay(value)
}

func parsePriority(text string) (model.Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "alta", "high":
		return model.PriorityHigh, true
	case "media", "medium":
		return model.PriorityMedium, true
	case "baixa", "low":
		return model.PriorityLow, true
	}
	return "", false
}

func parseCallback(data string) (prefix, tokenID string, ok bool) {
	for _, p := range []string{cbConfirmTask, cbCancelTask, cbConfirmCategory, cbCancelCategory} {
		if strings.HasPrefix(data, p) {
			id := strings.TrimPrefix(data, p)
			return p, id, id != ""
		}
	}
	return "", "", false
}

func filterLabel(f service.TaskFilter) string {
	var parts []string
	if f.Category != "" && f.Category != model.AllCategories {
		parts = append(parts, "category "+f.Category)
	}
	if !f.Day.IsZero() {
		parts = append(parts, "on "+f.Day.String())
	}
	if f.NamePrefix != "" {
		parts = append(parts, "name "+f.NamePrefix+"…")
	}
	return strings.Join(parts, ", ")
}

func escape(s string) string {
	return html.EscapeString(s)
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}

func confirmKeyboard(okPrefix, noPrefix, tokenID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnConfirm, okPrefix+tokenID),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, noPrefix+tokenID),
		),
	)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelChart),
			tgbotapi.NewKeyboardButton(menuLabelCategories),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func dateKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.PriorityHigh)),
			tgbotapi.NewKeyboardButton(string(model.PriorityMedium)),
			tgbotapi.NewKeyboardButton(string(model.PriorityLow)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// categoryKeyboard lays the user's categories out two per row, skipping the
// "All" sentinel.
func categoryKeyboard(names []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, name := range names {
		if name == model.AllCategories {
			continue
		}
		row = append(row, tgbotapi.NewKeyboardButton(name))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
