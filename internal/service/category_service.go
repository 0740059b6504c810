package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/model"
)

// CategoryRemote is the part of the remote service categories need.
type CategoryRemote interface {
	ListCategories(ctx context.Context, token, userID string) ([]model.Category, error)
	CreateCategory(ctx context.Context, token, name string) error
	DeleteCategory(ctx context.Context, token, id string) error
}

// CategoryService keeps the user's categories in step with the server.
type CategoryService struct {
	remote   CategoryRemote
	sessions SessionReader
	notifier Notifier
	removals *confirmations
	log      *logrus.Entry

	mu         sync.RWMutex
	categories []model.Category
}

func NewCategoryService(remote CategoryRemote, sessions SessionReader, log *logrus.Logger, opts CoordinatorOptions) *CategoryService {
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string, string) {})
	}
	return &CategoryService{
		remote:   remote,
		sessions: sessions,
		notifier: opts.Notifier,
		removals: newConfirmations(opts.ConfirmationTTL, opts.Now),
		log:      log.WithField("component", "categories"),
	}
}

// List returns the categories from the last refresh, sorted by name.
func (s *CategoryService) List() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Category{}, s.categories...)
}

// Names returns the category names with the "All" sentinel first.
func (s *CategoryService) Names() []string {
	categories := s.List()
	names := make([]string, 0, len(categories)+1)
	names = append(names, model.AllCategories)
	for _, category := range categories {
		names = append(names, category.Name)
	}
	return names
}

// Find looks a category up by name.
func (s *CategoryService) Find(name string) (model.Category, bool) {
	for _, category := range s.List() {
		if category.Name == name {
			return category, true
		}
	}
	return model.Category{}, false
}

// Refresh reloads the categories. Without a session it keeps the current list.
func (s *CategoryService) Refresh(ctx context.Context) ([]model.Category, error) {
	session := s.sessions.Current()
	if !session.Active() {
		return s.List(), nil
	}

	categories, err := s.remote.ListCategories(ctx, session.Token, session.User.ID)
	if err != nil {
		return s.List(), s.fail("Categories", err)
	}
	if s.sessions.Current().Token != session.Token {
		return s.List(), s.fail("Categories", appErrors.ErrStaleSession)
	}

	sorted := append([]model.Category{}, categories...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	s.mu.Lock()
	s.categories = sorted
	s.mu.Unlock()
	return append([]model.Category{}, sorted...), nil
}

// Add creates a category and reloads the list.
func (s *CategoryService) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.fail("New category", appErrors.Validation("name", "is required"))
	}
	if name == model.AllCategories {
		return s.fail("New category", appErrors.Validation("name", "is reserved"))
	}
	if _, exists := s.Find(name); exists {
		return s.fail("New category", appErrors.ErrDuplicate)
	}

	session := s.sessions.Current()
	if !session.Active() {
		return s.fail("New category", appErrors.ErrNoSession)
	}
	if err := s.remote.CreateCategory(ctx, session.Token, name); err != nil {
		return s.fail("New category", err)
	}
	s.log.WithField("name", name).Info("category created")

	if _, err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("refresh after create failed")
	}
	return nil
}

// ProposeRemoval starts the two-step removal of a category.
func (s *CategoryService) ProposeRemoval(name string) (ConfirmationToken, error) {
	category, ok := s.Find(name)
	if !ok {
		return ConfirmationToken{}, s.fail("Remove category", appErrors.ErrNotFound)
	}
	return s.removals.propose(category.ID, category.Name), nil
}

// CancelRemoval drops a pending removal.
func (s *CategoryService) CancelRemoval(tokenID string) bool {
	return s.removals.cancel(tokenID)
}

// ConfirmRemoval deletes the category behind tokenID.
func (s *CategoryService) ConfirmRemoval(ctx context.Context, tokenID string) error {
	tok, err := s.removals.take(tokenID)
	if err != nil {
		return s.fail("Remove category", err)
	}

	session := s.sessions.Current()
	if !session.Active() {
		return s.fail("Remove category", appErrors.ErrNoSession)
	}
	if err := s.remote.DeleteCategory(ctx, session.Token, tok.TargetID); err != nil {
		s.removals.restore(tok)
		return s.fail("Remove category", err)
	}
	if s.sessions.Current().Token != session.Token {
		return s.fail("Remove category", appErrors.ErrStaleSession)
	}

	s.mu.Lock()
	kept := make([]model.Category, 0, len(s.categories))
	for _, category := range s.categories {
		if category.ID != tok.TargetID {
			kept = append(kept, category)
		}
	}
	s.categories = kept
	s.mu.Unlock()

	s.log.WithField("category_id", tok.TargetID).Info("category removed")
	return nil
}

// Reset forgets the cached categories.
func (s *CategoryService) Reset() {
	s.mu.Lock()
	s.categories = nil
	s.mu.Unlock()
	s.removals.reset()
}

func (s *CategoryService) fail(title string, err error) error {
	if errors.Is(err, appErrors.ErrStaleSession) {
		s.log.Debug("discarding response issued under a previous session")
		return err
	}
	s.log.WithError(err).Warn("category request failed")
	s.notifier.Notify(title, appErrors.UserMessage(err))
	return err
}
