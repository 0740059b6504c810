package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"task-tracker/internal/calendar"
	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

const chatKeyPrefix = "telegram:"

// Remote is everything a chat needs from the remote service.
type Remote interface {
	service.AuthRemote
	service.TaskRemote
	service.CategoryRemote
}

// TokenStore persists one token per chat and can enumerate them.
type TokenStore interface {
	service.TokenStore
	Keys(ctx context.Context) ([]string, error)
}

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageCategory
	stagePriority
	stageDate
)

type conversationState struct {
	stage conversationStage
	draft model.Task
}

// workspace is the per-chat session, task snapshot and category list.
type workspace struct {
	chatID     int64
	sessions   *service.SessionStore
	tasks      *service.TaskSyncCoordinator
	categories *service.CategoryService

	// muted drops notifications while a scheduled job works on the chat.
	muted atomic.Bool

	mu           sync.Mutex
	restored     bool
	conversation *conversationState
}

func chatKey(chatID int64) string {
	return chatKeyPrefix + strconv.FormatInt(chatID, 10)
}

func chatIDFromKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, chatKeyPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(key, chatKeyPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func newWorkspace(chatID int64, remote Remote, tokens TokenStore, ix *calendar.Indexer, log *logrus.Logger, opts service.CoordinatorOptions, notify func(chatID int64, title, message string)) *workspace {
	ws := &workspace{chatID: chatID}
	opts.Notifier = service.NotifierFunc(func(title, message string) {
		if ws.muted.Load() {
			return
		}
		notify(chatID, title, message)
	})
	ws.sessions = service.NewSessionStore(remote, tokens, chatKey(chatID), log)
	ws.tasks = service.NewTaskSyncCoordinator(remote, ws.sessions, ix, log, opts)
	ws.categories = service.NewCategoryService(remote, ws.sessions, log, opts)
	return ws
}

// restore loads the persisted token once per process. A network failure is
// retried on the next message.
func (ws *workspace) restore(ctx context.Context) error {
	ws.mu.Lock()
	done := ws.restored
	ws.mu.Unlock()
	if done {
		return nil
	}

	_, err := ws.sessions.Restore(ctx)
	if err != nil && errors.Is(err, appErrors.ErrNetwork) {
		return err
	}

	ws.mu.Lock()
	ws.restored = true
	ws.mu.Unlock()
	return err
}

func (ws *workspace) loggedIn() bool {
	return ws.sessions.Current().Active()
}

// login signs the chat in. The cached state of the current user is dropped
// only once the new session is in place.
func (ws *workspace) login(ctx context.Context, email, password string) (model.Session, error) {
	session, err := ws.sessions.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	ws.forget()
	return session, nil
}

// forget drops everything cached for the previous user.
func (ws *workspace) forget() {
	ws.tasks.Reset()
	ws.categories.Reset()
	ws.clearConversation()
}

func (ws *workspace) getConversation() *conversationState {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.conversation
}

func (ws *workspace) setConversation(state *conversationState) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.conversation = state
}

func (ws *workspace) clearConversation() {
	ws.setConversation(nil)
}

// taskAt returns the n-th (1-based) task of the last published list.
func (ws *workspace) taskAt(n int) (model.Task, error) {
	tasks := ws.tasks.Snapshot().Tasks
	if n < 1 || n > len(tasks) {
		return model.Task{}, fmt.Errorf("task %d: %w", n, appErrors.ErrNotFound)
	}
	return tasks[n-1], nil
}
