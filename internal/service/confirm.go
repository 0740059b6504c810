package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "task-tracker/internal/errors"
)

// ConfirmationToken identifies a proposed destructive action awaiting a yes.
type ConfirmationToken struct {
	ID        string
	TargetID  string
	Label     string
	ExpiresAt time.Time
}

// confirmations holds pending two-phase actions. Tokens are single use.
type confirmations struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	pending map[string]ConfirmationToken
}

func newConfirmations(ttl time.Duration, now func() time.Time) *confirmations {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &confirmations{ttl: ttl, now: now, pending: make(map[string]ConfirmationToken)}
}

func (c *confirmations) propose(targetID, label string) ConfirmationToken {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, tok := range c.pending {
		if now.After(tok.ExpiresAt) {
			delete(c.pending, id)
		}
	}

	tok := ConfirmationToken{
		ID:        uuid.NewString(),
		TargetID:  targetID,
		Label:     label,
		ExpiresAt: now.Add(c.ttl),
	}
	c.pending[tok.ID] = tok
	return tok
}

// take consumes the token. Expired and unknown tokens are rejected.
func (c *confirmations) take(id string) (ConfirmationToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok, ok := c.pending[id]
	if !ok {
		return ConfirmationToken{}, appErrors.ErrUnknownConfirmation
	}
	delete(c.pending, id)
	if c.now().After(tok.ExpiresAt) {
		return ConfirmationToken{}, appErrors.ErrUnknownConfirmation
	}
	return tok, nil
}

// restore puts back a token whose action failed so the user can retry.
func (c *confirmations) restore(tok ConfirmationToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[tok.ID] = tok
}

func (c *confirmations) cancel(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	delete(c.pending, id)
	return ok
}

func (c *confirmations) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = make(map[string]ConfirmationToken)
}
