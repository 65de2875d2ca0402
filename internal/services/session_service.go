package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/providers/identity"
	"github.com/scribeapp/scribe/internal/utils"
)

// Field keys form errors to the input that caused them.
type Field string

const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
	FieldGeneral  Field = "general"
)

// ClassifyProviderError maps a provider error onto a form field by message
// substring, case-insensitive. "password" is checked first; first match wins.
func ClassifyProviderError(err error) Field {
	if err == nil {
		return FieldGeneral
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "password"):
		return FieldPassword
	case strings.Contains(msg, "user"), strings.Contains(msg, "email"):
		return FieldEmail
	default:
		return FieldGeneral
	}
}

// SessionService is the session context: it owns the current identity and
// its credential lifecycle. It is constructed at application start and
// passed explicitly to whatever needs it; there is no ambient singleton.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	CreateUser(ctx context.Context, email, password string) (*models.User, error)
	LoginWithGoogle(ctx context.Context, googleToken string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	Logout(ctx context.Context) error
	DeleteSelf(ctx context.Context) error

	CurrentUser() *models.User
	Token() string
	IsLoading() bool
}

type sessionService struct {
	provider identity.Provider

	mu       sync.RWMutex
	user     *models.User
	token    string
	resolved bool // first identity resolution completed
}

func NewSessionService(provider identity.Provider) SessionService {
	return &sessionService{provider: provider}
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "SessionService.Login"

	if err := validateCredentials(op, email, password); err != nil {
		return nil, err
	}

	acct, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.markResolved()
		return nil, providerError(op, err)
	}
	return s.adopt(acct), nil
}

func (s *sessionService) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	const op = "SessionService.CreateUser"

	if err := validateCredentials(op, email, password); err != nil {
		return nil, err
	}

	acct, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.markResolved()
		return nil, providerError(op, err)
	}
	return s.adopt(acct), nil
}

func (s *sessionService) LoginWithGoogle(ctx context.Context, googleToken string) (*models.User, error) {
	const op = "SessionService.LoginWithGoogle"

	if googleToken == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "google token is required", nil)
	}

	acct, err := s.provider.SignInWithGoogle(ctx, googleToken)
	if err != nil {
		s.markResolved()
		return nil, providerError(op, err)
	}
	return s.adopt(acct), nil
}

func (s *sessionService) ForgotPassword(ctx context.Context, email string) error {
	const op = "SessionService.ForgotPassword"

	if email == "" || !strings.Contains(email, "@") {
		return utils.E(utils.CodeInvalidArgument, op, "a valid email is required", nil)
	}
	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		return providerError(op, err)
	}
	return nil
}

// Logout clears the session. Callers only navigate away once this returns
// without error.
func (s *sessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.resolved = true
	return nil
}

func (s *sessionService) DeleteSelf(ctx context.Context) error {
	const op = "SessionService.DeleteSelf"

	s.mu.RLock()
	user, token := s.user, s.token
	s.mu.RUnlock()

	if user == nil {
		return utils.E(utils.CodeUnauthorized, op, "no user is currently signed in", nil)
	}

	if err := s.provider.DeleteAccount(ctx, token); err != nil {
		if errors.Is(err, identity.ErrRequiresRecentLogin) {
			// distinct, actionable condition: the caller should prompt for
			// re-authentication instead of showing a generic failure
			return utils.E(utils.CodeForbidden, op, "please re-authenticate to delete your account", err)
		}
		return providerError(op, err)
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	return nil
}

func (s *sessionService) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *sessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsLoading reports true until the first identity resolution completes.
func (s *sessionService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.resolved
}

func (s *sessionService) adopt(acct *identity.Account) *models.User {
	u := &models.User{
		ID:           acct.UserID,
		Email:        acct.Email,
		CreatedAt:    acct.CreatedAt,
		LastSignInAt: acct.LastSignInAt,
	}
	s.mu.Lock()
	s.user = u
	s.token = acct.IDToken
	s.resolved = true
	s.mu.Unlock()
	return u
}

func (s *sessionService) markResolved() {
	s.mu.Lock()
	s.resolved = true
	s.mu.Unlock()
}

func validateCredentials(op, email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return utils.E(utils.CodeInvalidArgument, op, "a valid email is required", nil)
	}
	if password == "" {
		return utils.E(utils.CodeInvalidArgument, op, "password is required", nil)
	}
	return nil
}

func providerError(op string, err error) error {
	return utils.E(utils.CodeUnauthorized, op, err.Error(), err)
}
