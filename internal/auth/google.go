package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/response"
	"github.com/Kyz7/formbuilder/internal/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateTTL          = 5 * time.Minute
)

// GoogleUser is the subset of the userinfo payload used for sign-in.
type GoogleUser struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// UserInfoFetcher exchanges an authorization code for the caller's profile.
type UserInfoFetcher interface {
	AuthCodeURL(state string) string
	Fetch(ctx context.Context, code string) (*GoogleUser, error)
}

type googleOAuth struct {
	cfg *oauth2.Config
}

// NewGoogle returns nil when no client id is configured.
func NewGoogle(cfg *config.Config) UserInfoFetcher {
	if cfg.GoogleClientID == "" {
		return nil
	}
	return &googleOAuth{cfg: &oauth2.Config{
		RedirectURL:  cfg.GoogleRedirectURL,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (g *googleOAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state)
}

func (g *googleOAuth) Fetch(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := g.cfg.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var user GoogleUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// stateStore keeps outstanding oauth state values until they are used or expire.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]time.Time), now: time.Now}
}

func (s *stateStore) issue() string {
	state := utils.RandomString(32)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(stateTTL)
	return state
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.states[state]
	if !exists {
		return false
	}
	delete(s.states, state)
	return !s.now().After(expiry)
}

func (h *Handler) GoogleLogin(c *fiber.Ctx) error {
	if h.Google == nil {
		return response.NotFound(c, "Google sign-in")
	}
	return c.Redirect(h.Google.AuthCodeURL(h.states.issue()))
}

// GoogleCallback signs in an existing account by its verified Google email.
// Accounts are never created here; admins create them through signup.
func (h *Handler) GoogleCallback(c *fiber.Ctx) error {
	if h.Google == nil {
		return response.NotFound(c, "Google sign-in")
	}
	if !h.states.consume(c.Query("state")) {
		return response.BadRequest(c, "Invalid state parameter", nil)
	}

	profile, err := h.Google.Fetch(c.UserContext(), c.Query("code"))
	if err != nil {
		return response.FromError(c, apperror.Auth("Failed to verify Google account"))
	}
	if !profile.VerifiedEmail {
		return response.FromError(c, apperror.Auth("Google email is not verified"))
	}

	result, err := h.Service.SignInExisting(c.UserContext(), profile.Email)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, result, "Signed in successfully")
}
