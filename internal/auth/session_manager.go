package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/skillswap/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided access token does not map to an
	// active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session exists but its token is no
	// longer valid.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore persists issued access tokens so they can survive process
// restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, accessToken string) (Session, error)
	Delete(ctx context.Context, accessToken string) error
}

// Session represents an access token issued to a user.
type Session struct {
	AccessToken string
	UserID      string
	ExpiresAt   time.Time
}

// Manager issues and verifies bearer access tokens backed by a persistent
// store. Account creation and password handling live outside this service;
// the manager only maps tokens to user identities.
type Manager struct {
	accessTTL time.Duration

	store SessionStore
}

// NewManager constructs a Manager that issues access tokens with the provided TTL.
func NewManager(accessTTL time.Duration, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		accessTTL: accessTTL,
		store:     store,
	}
}

// Issue creates a new access token for the provided user identifier.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := time.Now().UTC()
	accessToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens := models.SessionTokens{
		AccessToken:     accessToken,
		AccessExpiresAt: now.Add(m.accessTTL),
	}

	if err := m.store.Save(ctx, Session{
		AccessToken: accessToken,
		UserID:      userID,
		ExpiresAt:   tokens.AccessExpiresAt,
	}); err != nil {
		return models.SessionTokens{}, err
	}

	return tokens, nil
}

// Verify resolves an access token to the user it was issued to. Expired
// sessions are pruned as a side effect.
func (m *Manager) Verify(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, accessToken)
	if err != nil {
		return "", err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, accessToken)
		return "", ErrSessionExpired
	}

	return session.UserID, nil
}

// Revoke removes the provided access token from the active session store.
func (m *Manager) Revoke(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	_ = m.store.Delete(ctx, accessToken)
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
