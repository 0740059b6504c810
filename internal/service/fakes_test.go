package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"task-tracker/internal/calendar"
	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/logging"
	"task-tracker/internal/model"
)

var testUser = &model.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}

type fakeSessions struct {
	mu      sync.Mutex
	session model.Session
}

func loggedIn(token string) *fakeSessions {
	return &fakeSessions{session: model.Session{Token: token, User: testUser}}
}

func (f *fakeSessions) Current() model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeSessions) set(s model.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
}

// fakeTaskRemote enforces the server's (name, category, date, owner) uniqueness.
type fakeTaskRemote struct {
	mu       sync.Mutex
	tasks    []model.Task
	nextID   int
	calls    map[string]int
	listErr  error
	writeErr error
	// beforeList runs inside ListTasks before the response is built.
	beforeList func()
	// beforeWrite runs at the start of CreateTask, UpdateTask and DeleteTask.
	beforeWrite func(op string)
}

func newFakeTaskRemote(tasks ...model.Task) *fakeTaskRemote {
	return &fakeTaskRemote{tasks: tasks, nextID: 100, calls: make(map[string]int)}
}

func (f *fakeTaskRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeTaskRemote) ListTasks(ctx context.Context, token, userID string) ([]model.Task, error) {
	if f.beforeList != nil {
		f.beforeList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Task{}, f.tasks...), nil
}

func (f *fakeTaskRemote) CreateTask(ctx context.Context, token string, task model.Task) error {
	if f.beforeWrite != nil {
		f.beforeWrite("create")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, existing := range f.tasks {
		if existing.Name == task.Name && existing.Category == task.Category && existing.Date == task.Date {
			return &appErrors.RemoteError{Kind: appErrors.ErrDuplicate, Op: "POST /task", Status: 422}
		}
	}
	f.nextID++
	task.ID = fmt.Sprintf("t%d", f.nextID)
	task.OwnerID = testUser.ID
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeTaskRemote) UpdateTask(ctx context.Context, token string, task model.Task) error {
	if f.beforeWrite != nil {
		f.beforeWrite("update")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == task.ID {
			f.tasks[i] = task
			return nil
		}
	}
	return &appErrors.RemoteError{Kind: appErrors.ErrNetwork, Op: "PUT /task", Status: 500}
}

func (f *fakeTaskRemote) DeleteTask(ctx context.Context, token, id string) error {
	if f.beforeWrite != nil {
		f.beforeWrite("delete")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.tasks = withoutTask(f.tasks, id)
	return nil
}

type recordedNote struct {
	title   string
	message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (r *recordingNotifier) Notify(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, recordedNote{title: title, message: message})
}

func (r *recordingNotifier) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func utcIndexer() *calendar.Indexer {
	return calendar.NewIndexer(time.UTC)
}

func newTestCoordinator(remote TaskRemote, sessions SessionReader, notifier Notifier, clock *fakeClock) *TaskSyncCoordinator {
	opts := CoordinatorOptions{Notifier: notifier, ConfirmationTTL: time.Minute}
	if clock != nil {
		opts.Now = clock.Now
	}
	return NewTaskSyncCoordinator(remote, sessions, utcIndexer(), logging.Discard(), opts)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func mkTask(id, name, category, date string, done bool) model.Task {
	return model.Task{ID: id, Name: name, Category: category, Priority: model.PriorityMedium, Date: date, Active: done, OwnerID: testUser.ID}
}
