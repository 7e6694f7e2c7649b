package revocation

import (
	"context"
	"time"
)

// Revoker blacklists refresh tokens by jti until they expire on their own.
type Revoker interface {
	Revoke(ctx context.Context, jti string, userID uint, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Prune drops entries whose tokens have expired and reports how many went.
	Prune(ctx context.Context) (int64, error)
}
