package clinic

import (
	"context"
	"net/http"
	"strings"

	"medicrm/internal/api"
	"medicrm/internal/session"
)

// AuthService handles credential issuance. Renewal on expiry is the
// gateway's job; this service only covers explicit login and logout.
type AuthService struct {
	c     *api.Client
	store *session.Store
}

// Login exchanges a username and password for a token pair and
// persists it.
func (s *AuthService) Login(ctx context.Context, username, password string) (*session.Identity, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, api.Errorf(api.KindValidation, "username and password are required")
	}
	body := map[string]string{"username": username, "password": password}
	var issued struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := s.c.Do(ctx, http.MethodPost, "login", body, &issued); err != nil {
		return nil, err
	}
	if issued.AccessToken == "" {
		return nil, api.Errorf(api.KindUnknown, "login returned no token")
	}
	if err := s.store.Save(issued.AccessToken, issued.RefreshToken); err != nil {
		return nil, err
	}
	return session.Decode(issued.AccessToken), nil
}

// Logout drops the persisted credential.
func (s *AuthService) Logout() error {
	return s.store.Clear()
}

// Identity decodes the current credential, nil when logged out.
func (s *AuthService) Identity() *session.Identity {
	return session.DecodeFrom(s.store)
}
