package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/model"
)

// AuthRemote is the part of the remote service the session store needs.
type AuthRemote interface {
	Register(ctx context.Context, in model.Registration) error
	Login(ctx context.Context, email, password string) (string, error)
	FetchUser(ctx context.Context, token, userID string) (*model.User, error)
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, token string) error
	Clear(ctx context.Context, key string) error
}

// SessionReader is the read accessor injected into components that issue remote calls.
type SessionReader interface {
	Current() model.Session
}

// SessionStore owns the current session and its persisted token.
type SessionStore struct {
	remote AuthRemote
	tokens TokenStore
	key    string
	log    *logrus.Entry

	mu      sync.RWMutex
	session model.Session
}

func NewSessionStore(remote AuthRemote, tokens TokenStore, key string, log *logrus.Logger) *SessionStore {
	return &SessionStore{
		remote: remote,
		tokens: tokens,
		key:    key,
		log:    log.WithFields(logrus.Fields{"component": "session", "session_key": key}),
	}
}

// Current returns the session as of now.
func (s *SessionStore) Current() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Restore loads the persisted token and validates it with an identity fetch.
// Any failure leaves the store logged out. A network failure keeps the
// persisted token for a later retry; an auth failure discards it.
func (s *SessionStore) Restore(ctx context.Context) (model.Session, error) {
	raw, err := s.tokens.Load(ctx, s.key)
	if err != nil {
		s.setSession(model.Session{})
		return model.Session{}, err
	}
	token := normalizeToken(raw)
	if token == "" {
		s.setSession(model.Session{})
		return model.Session{}, nil
	}

	user, err := s.identify(ctx, token)
	if err != nil {
		s.setSession(model.Session{})
		if appErrors.IsAuth(err) {
			s.log.WithError(err).Info("stored token rejected, clearing it")
			if clearErr := s.tokens.Clear(ctx, s.key); clearErr != nil {
				s.log.WithError(clearErr).Warn("clear rejected token")
			}
		} else {
			s.log.WithError(err).Warn("could not validate stored token")
		}
		return model.Session{}, err
	}

	session := model.Session{Token: token, User: user}
	s.setSession(session)
	s.log.WithField("user_id", user.ID).Info("session restored")
	return session, nil
}

// Login authenticates, validates the returned token and persists it.
func (s *SessionStore) Login(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.Session{}, appErrors.Validation("email", "is required")
	}
	if password == "" {
		return model.Session{}, appErrors.Validation("password", "is required")
	}

	raw, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	token := normalizeToken(raw)

	user, err := s.identify(ctx, token)
	if err != nil {
		if appErrors.IsAuth(err) {
			// an unknown account on sign-in is a credentials failure
			return model.Session{}, &appErrors.RemoteError{Kind: appErrors.ErrInvalidCredentials, Op: "login", Message: err.Error()}
		}
		return model.Session{}, err
	}

	if err := s.tokens.Save(ctx, s.key, token); err != nil {
		return model.Session{}, fmt.Errorf("persist token: %w", err)
	}

	session := model.Session{Token: token, User: user}
	s.setSession(session)
	s.log.WithField("user_id", user.ID).Info("logged in")
	return session, nil
}

// Register creates an account. It does not log in.
func (s *SessionStore) Register(ctx context.Context, in model.Registration) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	switch {
	case in.Name == "":
		return appErrors.Validation("name", "is required")
	case in.Email == "":
		return appErrors.Validation("email", "is required")
	case in.Password == "":
		return appErrors.Validation("password", "is required")
	case in.Password != in.ConfirmPassword:
		return appErrors.Validation("confirmPassword", "passwords do not match")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return appErrors.Validation("email", "is not a valid address")
	}

	if err := s.remote.Register(ctx, in); err != nil {
		return err
	}
	s.log.WithField("email", in.Email).Info("account registered")
	return nil
}

// Logout forgets the session in memory and in storage.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.setSession(model.Session{})
	if err := s.tokens.Clear(ctx, s.key); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.log.Info("logged out")
	return nil
}

func (s *SessionStore) identify(ctx context.Context, token string) (*model.User, error) {
	userID, err := userIDFromToken(token)
	if err != nil {
		return nil, &appErrors.RemoteError{Kind: appErrors.ErrUnauthorized, Op: "decode token", Message: err.Error()}
	}
	user, err := s.remote.FetchUser(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = userID
	}
	return user, nil
}

func (s *SessionStore) setSession(session model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// userIDFromToken reads the owner id from the token claims. The signature
// cannot be checked client side; the server verifies it on every call.
func userIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	for _, name := range []string{"id", "sub"} {
		if id, ok := claims[name].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("token carries no user id")
}

func normalizeToken(token string) string {
	return strings.Trim(strings.TrimSpace(token), `"`)
}
