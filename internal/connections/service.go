// Package connections owns the lifecycle of connection records: request
// creation, duplicate detection, recipient-only accept and reject, and
// enrichment of listings with directory data.
package connections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/repositories"
)

// DefaultAvatarRef is substituted when a peer has no stored profile.
const DefaultAvatarRef = "default-avatar.png"

// Store persists the connection collection. It exposes whole-collection
// semantics only; the service serializes every load-mutate-save cycle itself.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Connection, error)
	ReplaceAll(ctx context.Context, conns []models.Connection) error
}

// UserDirectory resolves user accounts for target validation and enrichment.
type UserDirectory interface {
	FindUser(ctx context.Context, id string) (models.User, error)
}

// ProfileDirectory resolves display profiles for enrichment.
type ProfileDirectory interface {
	FindProfile(ctx context.Context, userID string) (models.Profile, error)
}

// SkillDirectory resolves the skills a user has listed.
type SkillDirectory interface {
	ListSkills(ctx context.Context, userID string) ([]models.Skill, error)
}

// PeerView is the directory data attached to a listed connection.
type PeerView struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	AvatarRef   string   `json:"avatar"`
	Skills      []string `json:"skills"`
}

// View is a connection record enriched with the other party's display data.
type View struct {
	models.Connection
	Peer PeerView `json:"peer"`
}

// Listing partitions a user's connections by status.
type Listing struct {
	Pending   []View `json:"pending"`
	Connected []View `json:"connected"`
}

// Service is the connection lifecycle manager. The mutex guards every
// load-mutate-save cycle against the store: with whole-collection writes and
// no compare-and-swap, overlapping operations would otherwise lose updates and
// break the one-record-per-pair invariant.
type Service struct {
	mu sync.Mutex

	store    Store
	users    UserDirectory
	profiles ProfileDirectory
	skills   SkillDirectory

	nowFunc   func() time.Time
	newIDFunc func() string
}

// NewService wires the lifecycle manager to its store and directories.
func NewService(store Store, users UserDirectory, profiles ProfileDirectory, skills SkillDirectory) *Service {
	if store == nil {
		panic("connections: store must not be nil")
	}
	if users == nil {
		panic("connections: user directory must not be nil")
	}
	return &Service{
		store:    store,
		users:    users,
		profiles: profiles,
		skills:   skills,
	}
}

// Request creates a pending connection from the actor to the target user.
func (s *Service) Request(ctx context.Context, actorID, targetID string) (models.Connection, error) {
	ctx, span := logging.StartSpan(ctx, "connections.request")
	defer span.End()

	actorID = strings.TrimSpace(actorID)
	targetID = strings.TrimSpace(targetID)

	if targetID == "" || targetID == actorID {
		return models.Connection{}, ErrInvalidTarget
	}

	if _, err := s.users.FindUser(ctx, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Connection{}, ErrInvalidTarget
		}
		return models.Connection{}, fmt.Errorf("resolve target user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Connection{}, fmt.Errorf("load connections: %w", err)
	}

	for _, conn := range conns {
		if conn.Pairs(actorID, targetID) {
			return models.Connection{}, ErrDuplicate
		}
	}

	created := models.Connection{
		ID:          s.newID(),
		RequesterID: actorID,
		RecipientID: targetID,
		Status:      models.ConnectionStatusPending,
		CreatedAt:   s.now(),
	}

	conns = append(conns, created)
	if err := s.store.ReplaceAll(ctx, conns); err != nil {
		return models.Connection{}, fmt.Errorf("save connections: %w", err)
	}

	logging.FromContext(ctx).Info("connection requested",
		"connectionId", created.ID, "requesterId", actorID, "recipientId", targetID)

	return created, nil
}

// Accept transitions a pending connection to connected. Only the recipient may
// accept, and only while the record is still pending.
func (s *Service) Accept(ctx context.Context, actorID, connectionID string) (models.Connection, error) {
	ctx, span := logging.StartSpan(ctx, "connections.accept")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Connection{}, fmt.Errorf("load connections: %w", err)
	}

	idx := indexByID(conns, connectionID)
	if idx < 0 {
		return models.Connection{}, ErrNotFound
	}

	conn := conns[idx]
	if conn.RecipientID != strings.TrimSpace(actorID) {
		return models.Connection{}, ErrUnauthorized
	}
	if conn.Status != models.ConnectionStatusPending {
		return models.Connection{}, ErrInvalidState
	}

	acceptedAt := s.now()
	conn.Status = models.ConnectionStatusConnected
	conn.AcceptedAt = &acceptedAt
	conns[idx] = conn

	if err := s.store.ReplaceAll(ctx, conns); err != nil {
		return models.Connection{}, fmt.Errorf("save connections: %w", err)
	}

	logging.FromContext(ctx).Info("connection accepted",
		"connectionId", conn.ID, "recipientId", conn.RecipientID)

	return conn, nil
}

// Reject declines a pending connection request, removing the record entirely.
// Re-establishing contact afterwards requires a fresh request. Records that
// are already connected cannot be rejected.
func (s *Service) Reject(ctx context.Context, actorID, connectionID string) error {
	ctx, span := logging.StartSpan(ctx, "connections.reject")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	conns, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load connections: %w", err)
	}

	idx := indexByID(conns, connectionID)
	if idx < 0 {
		return ErrNotFound
	}

	conn := conns[idx]
	if conn.RecipientID != strings.TrimSpace(actorID) {
		return ErrUnauthorized
	}
	if conn.Status != models.ConnectionStatusPending {
		return ErrInvalidState
	}

	conns = append(conns[:idx], conns[idx+1:]...)
	if err := s.store.ReplaceAll(ctx, conns); err != nil {
		return fmt.Errorf("save connections: %w", err)
	}

	logging.FromContext(ctx).Info("connection rejected",
		"connectionId", conn.ID, "recipientId", conn.RecipientID)

	return nil
}

// List returns the actor's connections partitioned into pending and connected
// buckets, each record enriched with the peer's display data. Records keep the
// collection's insertion order. Missing directory data degrades to defaults
// and never fails the listing.
func (s *Service) List(ctx context.Context, actorID string) (Listing, error) {
	ctx, span := logging.StartSpan(ctx, "connections.list")
	defer span.End()

	actorID = strings.TrimSpace(actorID)

	s.mu.Lock()
	conns, err := s.store.LoadAll(ctx)
	s.mu.Unlock()
	if err != nil {
		return Listing{}, fmt.Errorf("load connections: %w", err)
	}

	listing := Listing{Pending: []View{}, Connected: []View{}}
	for _, conn := range conns {
		if !conn.Involves(actorID) {
			continue
		}

		view := View{
			Connection: conn,
			Peer:       s.peerView(ctx, conn.Peer(actorID)),
		}

		switch conn.Status {
		case models.ConnectionStatusPending:
			listing.Pending = append(listing.Pending, view)
		case models.ConnectionStatusConnected:
			listing.Connected = append(listing.Connected, view)
		}
	}

	return listing, nil
}

func (s *Service) peerView(ctx context.Context, peerID string) PeerView {
	view := PeerView{
		ID:        peerID,
		AvatarRef: DefaultAvatarRef,
		Skills:    []string{},
	}

	logger := logging.FromContext(ctx)

	if user, err := s.users.FindUser(ctx, peerID); err == nil {
		view.DisplayName = user.DisplayName
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Warn("peer user lookup failed", "userId", peerID, "error", err)
	}

	if s.profiles != nil {
		if profile, err := s.profiles.FindProfile(ctx, peerID); err == nil && profile.AvatarRef != "" {
			view.AvatarRef = profile.AvatarRef
		} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("peer profile lookup failed", "userId", peerID, "error", err)
		}
	}

	if s.skills != nil {
		if skills, err := s.skills.ListSkills(ctx, peerID); err == nil {
			for _, skill := range skills {
				view.Skills = append(view.Skills, skill.Name)
			}
		} else {
			logger.Warn("peer skill lookup failed", "userId", peerID, "error", err)
		}
	}

	return view
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.newIDFunc != nil {
		return s.newIDFunc()
	}
	return uuid.NewString()
}

func indexByID(conns []models.Connection, id string) int {
	for i, conn := range conns {
		if conn.ID == id {
			return i
		}
	}
	return -1
}
