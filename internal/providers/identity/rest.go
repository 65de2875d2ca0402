package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// RESTProvider talks to a managed identity service over HTTP JSON.
// The wire protocol is provider-internal; only the Account shape matters.
type RESTProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRESTProvider() (*RESTProvider, error) {
	base := os.Getenv("IDENTITY_API_URL")
	if base == "" {
		return nil, errors.New("IDENTITY_API_URL environment variable is not set")
	}
	return &RESTProvider{
		baseURL: base,
		apiKey:  os.Getenv("IDENTITY_API_KEY"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type accountResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
	LastSignInAt time.Time `json:"last_sign_in_at"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *RESTProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	return p.account(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (p *RESTProvider) SignUp(ctx context.Context, email, password string) (*Account, error) {
	return p.account(ctx, "/auth/signup", map[string]string{"email": email, "password": password})
}

func (p *RESTProvider) SignInWithGoogle(ctx context.Context, googleToken string) (*Account, error) {
	return p.account(ctx, "/auth/google", map[string]string{"id_token": googleToken})
}

func (p *RESTProvider) SendPasswordReset(ctx context.Context, email string) error {
	return p.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, "", nil)
}

func (p *RESTProvider) DeleteAccount(ctx context.Context, idToken string) error {
	return p.do(ctx, http.MethodDelete, "/auth/account", nil, idToken, nil)
}

func (p *RESTProvider) account(ctx context.Context, path string, body map[string]string) (*Account, error) {
	var out accountResponse
	if err := p.do(ctx, http.MethodPost, path, body, "", &out); err != nil {
		return nil, err
	}
	return &Account{
		UserID:       out.UserID,
		Email:        out.Email,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		CreatedAt:    out.CreatedAt,
		LastSignInAt: out.LastSignInAt,
	}, nil
}

func (p *RESTProvider) do(ctx context.Context, method, path string, body any, bearer string, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &er)

		msg := er.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if isRecentLogin(er.Error.Code, msg) {
			return ErrRequiresRecentLogin
		}
		return fmt.Errorf("identity provider: %s (status %d)", msg, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isRecentLogin(code, msg string) bool {
	if strings.EqualFold(code, "requires-recent-login") {
		return true
	}
	return strings.Contains(strings.ToLower(msg), "recent login")
}
