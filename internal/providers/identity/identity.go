package identity

import (
	"context"
	"errors"
	"time"
)

// ErrRequiresRecentLogin is returned by DeleteAccount when the provider
// refuses to act on stale credentials. Callers surface this distinctly.
var ErrRequiresRecentLogin = errors.New("requires recent login")

// Account is the provider-side view of an authenticated identity.
type Account struct {
	UserID       string
	Email        string
	IDToken      string
	RefreshToken string
	CreatedAt    time.Time
	LastSignInAt time.Time
}

// Provider is the external identity service. Operations fail with whatever
// error the provider raises; classification happens in the session layer.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Account, error)
	SignUp(ctx context.Context, email, password string) (*Account, error)
	SignInWithGoogle(ctx context.Context, googleToken string) (*Account, error)
	SendPasswordReset(ctx context.Context, email string) error
	DeleteAccount(ctx context.Context, idToken string) error
}
