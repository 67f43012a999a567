package session

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "credentials.json"))
}

func TestStoreAbsentMeansLoggedOut(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	access, err := s.AccessToken()
	if err != nil || access != "" {
		t.Fatalf("missing file should read as empty token, got %q, %v", access, err)
	}
	refresh, err := s.RefreshToken()
	if err != nil || refresh != "" {
		t.Fatalf("missing file should read as empty refresh, got %q, %v", refresh, err)
	}
}

func TestStoreSaveRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if err := s.Save("acc-1", "ref-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	access, _ := s.AccessToken()
	refresh, _ := s.RefreshToken()
	if access != "acc-1" || refresh != "ref-1" {
		t.Fatalf("round trip mismatch: %q / %q", access, refresh)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credential file should be owner-only, got %v", perm)
	}
}

func TestStoreSetAccessTokenKeepsRefresh(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if err := s.Save("acc-1", "ref-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SetAccessToken("acc-2"); err != nil {
		t.Fatalf("set access token: %v", err)
	}

	access, _ := s.AccessToken()
	refresh, _ := s.RefreshToken()
	if access != "acc-2" {
		t.Fatalf("access token not rotated: %q", access)
	}
	if refresh != "ref-1" {
		t.Fatalf("refresh token must survive rotation: %q", refresh)
	}
}

func TestStoreClearIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if err := s.Clear(); err != nil {
		t.Fatalf("clearing an absent credential should be fine: %v", err)
	}
	_ = s.Save("acc", "ref")
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	access, _ := s.AccessToken()
	if access != "" {
		t.Fatalf("token survived clear: %q", access)
	}
}

func TestStoreCorruptFileDegradesToLoggedOut(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	access, err := s.AccessToken()
	if err != nil {
		t.Fatalf("corrupt file must not error: %v", err)
	}
	if access != "" {
		t.Fatalf("corrupt file must read as logged out, got %q", access)
	}
}
