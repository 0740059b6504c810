package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"task-tracker/internal/calendar"
	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/model"
)

// TaskRemote is the part of the remote service the coordinator needs.
type TaskRemote interface {
	ListTasks(ctx context.Context, token, userID string) ([]model.Task, error)
	CreateTask(ctx context.Context, token string, task model.Task) error
	UpdateTask(ctx context.Context, token string, task model.Task) error
	DeleteTask(ctx context.Context, token, id string) error
}

// Notifier shows a failure to the person using the app.
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// Snapshot is the filtered task list and its chart, published together.
type Snapshot struct {
	Filter    TaskFilter
	Tasks     []model.Task
	Matrix    model.WeeklyMatrix
	FetchedAt time.Time
}

// CompletedIDs lists the ids of completed tasks in the snapshot.
func (s Snapshot) CompletedIDs() []string {
	ids := make([]string, 0, len(s.Tasks))
	for _, task := range s.Tasks {
		if task.Active {
			ids = append(ids, task.ID)
		}
	}
	return ids
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Tasks = append([]model.Task{}, s.Tasks...)
	out.Matrix = s.Matrix.Clone()
	return out
}

// CoordinatorOptions tunes a TaskSyncCoordinator. Zero values are fine.
type CoordinatorOptions struct {
	ConfirmationTTL time.Duration
	Notifier        Notifier
	Now             func() time.Time
}

// TaskSyncCoordinator runs every task read and write against the remote
// service and keeps the published snapshot in step with it.
type TaskSyncCoordinator struct {
	remote     TaskRemote
	sessions   SessionReader
	ix         *calendar.Indexer
	aggregator *WeeklyAggregator
	notifier   Notifier
	now        func() time.Time
	removals   *confirmations
	log        *logrus.Entry

	mu       sync.RWMutex
	snapshot Snapshot
	all      []model.Task
	gen      uint64
}

func NewTaskSyncCoordinator(remote TaskRemote, sessions SessionReader, ix *calendar.Indexer, log *logrus.Logger, opts CoordinatorOptions) *TaskSyncCoordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string, string) {})
	}
	c := &TaskSyncCoordinator{
		remote:     remote,
		sessions:   sessions,
		ix:         ix,
		aggregator: NewWeeklyAggregator(ix),
		notifier:   opts.Notifier,
		now:        opts.Now,
		removals:   newConfirmations(opts.ConfirmationTTL, opts.Now),
		log:        log.WithField("component", "sync"),
	}
	c.snapshot = c.emptySnapshot(AllTasks)
	return c
}

// Snapshot returns a copy of the last published snapshot.
func (c *TaskSyncCoordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.clone()
}

// Find looks a task up by id in the last fetched, unfiltered set.
func (c *TaskSyncCoordinator) Find(id string) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, task := range c.all {
		if task.ID == id {
			return task, true
		}
	}
	return model.Task{}, false
}

// FetchAll loads every task of the current user, filters and aggregates them
// and publishes the result. Without a session it returns the previous
// snapshot. A response that arrives after the session changed is dropped.
func (c *TaskSyncCoordinator) FetchAll(ctx context.Context, filter TaskFilter) (Snapshot, error) {
	session := c.sessions.Current()
	if !session.Active() {
		return c.Snapshot(), nil
	}
	gen := c.generation()

	tasks, err := c.remote.ListTasks(ctx, session.Token, session.User.ID)
	if err != nil {
		return c.Snapshot(), c.fail("Tasks", err)
	}

	snap, err := c.publish(session.Token, gen, filter, tasks)
	if err != nil {
		return c.Snapshot(), c.fail("Tasks", err)
	}
	c.log.WithFields(logrus.Fields{
		"tasks":    len(tasks),
		"filtered": len(snap.Tasks),
		"weeks":    len(snap.Matrix.Weeks),
	}).Debug("snapshot published")
	return snap, nil
}

// Refresh re-runs FetchAll with the filter of the current snapshot.
func (c *TaskSyncCoordinator) Refresh(ctx context.Context) (Snapshot, error) {
	return c.FetchAll(ctx, c.currentFilter())
}

// Create validates draft, submits it and re-fetches. The returned task has
// the server id when the re-fetch finds it.
func (c *TaskSyncCoordinator) Create(ctx context.Context, draft model.Task) (model.Task, error) {
	draft.ID = ""
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Category = strings.TrimSpace(draft.Category)
	if draft.Priority == "" {
		draft.Priority = model.PriorityLow
	}
	if err := c.validate(draft); err != nil {
		return model.Task{}, c.fail("New task", err)
	}

	session := c.sessions.Current()
	if !session.Active() {
		return model.Task{}, c.fail("New task", appErrors.ErrNoSession)
	}
	if c.isDuplicate(draft) {
		return model.Task{}, c.fail("New task", appErrors.ErrDuplicate)
	}

	if err := c.remote.CreateTask(ctx, session.Token, draft); err != nil {
		return model.Task{}, c.fail("New task", err)
	}
	if c.sessions.Current().Token != session.Token {
		return model.Task{}, c.fail("New task", appErrors.ErrStaleSession)
	}
	c.log.WithField("name", draft.Name).Info("task created")

	draft.OwnerID = session.User.ID
	if _, err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Warn("refresh after create failed")
		return draft, nil
	}
	if created, ok := c.match(draft); ok {
		return created, nil
	}
	return draft, nil
}

// Update replaces the editable fields of a persisted task and re-fetches.
func (c *TaskSyncCoordinator) Update(ctx context.Context, task model.Task) (model.Task, error) {
	task.Name = strings.TrimSpace(task.Name)
	if !task.Persisted() {
		return model.Task{}, c.fail("Task", appErrors.Validation("id", "task is not saved yet"))
	}
	if err := c.validate(task); err != nil {
		return model.Task{}, c.fail("Task", err)
	}

	session := c.sessions.Current()
	if !session.Active() {
		return model.Task{}, c.fail("Task", appErrors.ErrNoSession)
	}

	if err := c.remote.UpdateTask(ctx, session.Token, task); err != nil {
		return model.Task{}, c.fail("Task", err)
	}
	if c.sessions.Current().Token != session.Token {
		return model.Task{}, c.fail("Task", appErrors.ErrStaleSession)
	}
	c.log.WithField("task_id", task.ID).Info("task updated")

	if _, err := c.Refresh(ctx); err != nil {
		c.log.WithError(err).Warn("refresh after update failed")
		return task, nil
	}
	if updated, ok := c.Find(task.ID); ok {
		return updated, nil
	}
	return task, nil
}

// ToggleCompleted flips the completion flag of a task.
func (c *TaskSyncCoordinator) ToggleCompleted(ctx context.Context, id string) (model.Task, error) {
	task, ok := c.Find(id)
	if !ok {
		return model.Task{}, c.fail("Task", appErrors.ErrNotFound)
	}
	task.Active = !task.Active
	return c.Update(ctx, task)
}

// ProposeRemoval starts the two-step removal of a task.
func (c *TaskSyncCoordinator) ProposeRemoval(id string) (ConfirmationToken, error) {
	task, ok := c.Find(id)
	if !ok {
		return ConfirmationToken{}, c.fail("Remove", appErrors.ErrNotFound)
	}
	return c.removals.propose(task.ID, task.Name), nil
}

// CancelRemoval drops a pending removal. It reports whether one existed.
func (c *TaskSyncCoordinator) CancelRemoval(tokenID string) bool {
	return c.removals.cancel(tokenID)
}

// ConfirmRemoval deletes the task behind tokenID and drops it from the
// snapshot. The chart is left as is until Reaggregate or the next fetch.
func (c *TaskSyncCoordinator) ConfirmRemoval(ctx context.Context, tokenID string) error {
	tok, err := c.removals.take(tokenID)
	if err != nil {
		return c.fail("Remove", err)
	}

	session := c.sessions.Current()
	if !session.Active() {
		return c.fail("Remove", appErrors.ErrNoSession)
	}
	gen := c.generation()

	if err := c.remote.DeleteTask(ctx, session.Token, tok.TargetID); err != nil {
		c.removals.restore(tok)
		return c.fail("Remove", err)
	}

	c.mu.Lock()
	stale := c.gen != gen || c.sessions.Current().Token != session.Token
	if !stale {
		c.all = withoutTask(c.all, tok.TargetID)
		c.snapshot.Tasks = withoutTask(c.snapshot.Tasks, tok.TargetID)
	}
	c.mu.Unlock()
	if stale {
		return c.fail("Remove", appErrors.ErrStaleSession)
	}

	c.log.WithField("task_id", tok.TargetID).Info("task removed")
	return nil
}

// Reaggregate recomputes the snapshot from the cached task set without a
// network call.
func (c *TaskSyncCoordinator) Reaggregate() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = c.build(c.snapshot.Filter, c.all, c.snapshot.FetchedAt)
	return c.snapshot.clone()
}

// Reset forgets all tasks and pending removals. Responses to requests issued
// before the reset are discarded.
func (c *TaskSyncCoordinator) Reset() {
	c.mu.Lock()
	c.gen++
	c.all = nil
	c.snapshot = c.emptySnapshot(AllTasks)
	c.mu.Unlock()
	c.removals.reset()
}

func (c *TaskSyncCoordinator) publish(token string, gen uint64, filter TaskFilter, tasks []model.Task) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || c.sessions.Current().Token != token {
		return Snapshot{}, appErrors.ErrStaleSession
	}

	c.all = append([]model.Task{}, tasks...)
	c.snapshot = c.build(filter, c.all, c.now())
	return c.snapshot.clone(), nil
}

func (c *TaskSyncCoordinator) build(filter TaskFilter, all []model.Task, fetchedAt time.Time) Snapshot {
	filtered := filter.Apply(all, c.ix)
	return Snapshot{
		Filter:    filter,
		Tasks:     filtered,
		Matrix:    c.aggregator.Aggregate(filtered),
		FetchedAt: fetchedAt,
	}
}

func (c *TaskSyncCoordinator) emptySnapshot(filter TaskFilter) Snapshot {
	return c.build(filter, nil, time.Time{})
}

func (c *TaskSyncCoordinator) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *TaskSyncCoordinator) currentFilter() TaskFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Filter
}

func (c *TaskSyncCoordinator) validate(task model.Task) error {
	if task.Name == "" {
		return appErrors.Validation("name", "is required")
	}
	if task.Category == "" {
		return appErrors.Validation("category", "is required")
	}
	if !task.Priority.Valid() {
		return appErrors.Validation("priority", "must be Alta, Media or Baixa")
	}
	if _, ok := c.ix.Parse(task.Date); !ok {
		return appErrors.Validation("date", "is missing or not a valid date")
	}
	return nil
}

// isDuplicate mirrors the server's uniqueness rule on the cached set:
// same name ignoring case, same category, same calendar day.
func (c *TaskSyncCoordinator) isDuplicate(draft model.Task) bool {
	_, ok := c.match(draft)
	return ok
}

func (c *TaskSyncCoordinator) match(draft model.Task) (model.Task, bool) {
	draftAt, draftOK := c.ix.Parse(draft.Date)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, task := range c.all {
		if !strings.EqualFold(task.Name, draft.Name) || task.Category != draft.Category {
			continue
		}
		at, ok := c.ix.Parse(task.Date)
		switch {
		case ok && draftOK && c.ix.DayOf(at) == c.ix.DayOf(draftAt):
			return task, true
		case task.Date == draft.Date:
			return task, true
		}
	}
	return model.Task{}, false
}

// fail logs err, tells the user and returns it. Stale responses are dropped silently.
func (c *TaskSyncCoordinator) fail(title string, err error) error {
	switch {
	case errors.Is(err, appErrors.ErrStaleSession):
		c.log.Debug("discarding response issued under a previous session")
		return err
	case errors.Is(err, appErrors.ErrValidation), errors.Is(err, appErrors.ErrDuplicate):
		c.log.WithError(err).Debug("request rejected")
	default:
		c.log.WithError(err).Warn("request failed")
	}
	c.notifier.Notify(title, appErrors.UserMessage(err))
	return err
}

func withoutTask(tasks []model.Task, id string) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.ID != id {
			out = append(out, task)
		}
	}
	return out
}
