package handlers

import (
	"context"

	"github.com/skillswap/backend/internal/connections"
	"github.com/skillswap/backend/internal/models"
)

// ConnectionService captures the lifecycle operations required by the
// connection handlers.
type ConnectionService interface {
	Request(ctx context.Context, actorID, targetID string) (models.Connection, error)
	Accept(ctx context.Context, actorID, connectionID string) (models.Connection, error)
	Reject(ctx context.Context, actorID, connectionID string) error
	List(ctx context.Context, actorID string) (connections.Listing, error)
}

// AccessVerifier resolves bearer access tokens to authenticated user ids.
// Token issuance itself happens outside this service.
type AccessVerifier interface {
	Verify(ctx context.Context, accessToken string) (string, error)
}
