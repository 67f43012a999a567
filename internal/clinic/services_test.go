package clinic_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"medicrm/internal/api"
	"medicrm/internal/clinic"
	"medicrm/internal/clinictest"
	"medicrm/internal/session"
)

// newStack spins up the fake backend and a fully wired service bundle,
// signed in as the given seeded user.
func newStack(t *testing.T, username string) (*clinic.Services, *clinictest.Server, *session.Store) {
	t.Helper()
	backend := clinictest.New()
	t.Cleanup(backend.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	client, err := api.New(backend.BaseURL(), store,
		api.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	svc := clinic.NewServices(client, store)

	if _, err := svc.Auth.Login(context.Background(), username, "pw"); err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return svc, backend, store
}

// unreachableServices returns a bundle whose backend cannot be reached,
// for proving that client-side validation never touches the network.
func unreachableServices(t *testing.T) *clinic.Services {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	client, err := api.New("http://127.0.0.1:1/api", store,
		api.WithHTTPClient(&http.Client{Timeout: time.Second}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return clinic.NewServices(client, store)
}

func TestLoginStoresTokenPair(t *testing.T) {
	t.Parallel()
	svc, _, store := newStack(t, "house")

	id := svc.Auth.Identity()
	if id == nil {
		t.Fatal("expected an identity after login")
	}
	if id.Subject != "house" || id.Role != session.RoleDoctor || id.UserID != 1 {
		t.Fatalf("unexpected identity: %+v", id)
	}
	refresh, _ := store.RefreshToken()
	if refresh == "" {
		t.Fatal("refresh token not persisted")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	svc, _, _ := newStack(t, "house")

	_, err := svc.Auth.Login(context.Background(), "house", "wrong")
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()
	svc := unreachableServices(t)
	_, err := svc.Auth.Login(context.Background(), "  ", "")
	if !api.IsValidation(err) {
		t.Fatalf("blank credentials should fail locally, got %v", err)
	}
}

func TestLogoutDropsIdentity(t *testing.T) {
	t.Parallel()
	svc, _, _ := newStack(t, "smith")
	if err := svc.Auth.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.Auth.Identity() != nil {
		t.Fatal("identity survived logout")
	}
}

// TestExpiredAccessTokenIsRenewedSilently exercises the full renewal
// path: an expired access token with a live refresh token should never
// surface to the caller.
func TestExpiredAccessTokenIsRenewedSilently(t *testing.T) {
	t.Parallel()
	svc, backend, store := newStack(t, "house")
	expired := backend.ExpiredTokenFor("house")
	if err := store.SetAccessToken(expired); err != nil {
		t.Fatalf("expire token: %v", err)
	}

	if _, err := svc.Patients.List(context.Background()); err != nil {
		t.Fatalf("expected silent renewal, got %v", err)
	}
	if tok, _ := store.AccessToken(); tok == expired {
		t.Fatal("access token was not rotated")
	}
}

func TestExpiredEverythingSurfacesUnauthorized(t *testing.T) {
	t.Parallel()
	svc, backend, store := newStack(t, "house")
	// Both tokens dead: renewal cannot save this session.
	if err := store.Save(backend.ExpiredTokenFor("house"), "not-a-refresh-token"); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := svc.Patients.List(context.Background())
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
