package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/security"
)

func newTestSessionManager(t *testing.T) (*stubUserRepo, *sessionManager) {
	t.Helper()
	repo := newStubUserRepo()
	h := newCountingHasher()
	seedUser(t, repo, h, "alice", "alice@example.com", "secret1", roleUser)
	auth := NewAuthService(repo, h, zerolog.Nop())
	return repo, NewSessionManager(auth, zerolog.Nop()).(*sessionManager)
}

func TestSessionManager_Login_Success(t *testing.T) {
	_, m := newTestSessionManager(t)
	sess := &stubSession{}

	state, err := m.Login(context.Background(), sess, "alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if state != security.StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", state)
	}
	if sess.binds != 1 || sess.principal == nil || sess.principal.Username != "alice" {
		t.Fatalf("expected principal bound once, got %+v (binds=%d)", sess.principal, sess.binds)
	}

	p, current := m.Current(sess)
	if current != security.StateAuthenticated || p.Username != "alice" {
		t.Fatalf("unexpected current state %s / %+v", current, p)
	}
}

func TestSessionManager_Login_Rejected(t *testing.T) {
	_, m := newTestSessionManager(t)

	for _, tc := range []struct{ name, identifier, password string }{
		{"wrong password", "alice", "wrong"},
		{"unknown identifier", "nobody", "secret1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sess := &stubSession{}
			state, err := m.Login(context.Background(), sess, tc.identifier, tc.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if state != security.StateAnonymous {
				t.Fatalf("expected rejection to end anonymous, got %s", state)
			}
			if sess.binds != 0 {
				t.Fatalf("rejected login must not bind a principal")
			}
		})
	}
}

func TestSessionManager_Login_BindFailure(t *testing.T) {
	_, m := newTestSessionManager(t)
	sess := &stubSession{bindErr: errors.New("redis down")}

	state, err := m.Login(context.Background(), sess, "alice", "secret1")
	if err == nil {
		t.Fatalf("expected bind error")
	}
	if state != security.StateAnonymous {
		t.Fatalf("expected anonymous, got %s", state)
	}
}

func TestSessionManager_Logout(t *testing.T) {
	_, m := newTestSessionManager(t)
	sess := &stubSession{}
	if _, err := m.Login(context.Background(), sess, "alice", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	state, err := m.Logout(context.Background(), sess)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if state != security.StateAnonymous || !sess.invalidated {
		t.Fatalf("expected invalidated anonymous session, got %s (invalidated=%v)", state, sess.invalidated)
	}
	if _, current := m.Current(sess); current != security.StateAnonymous {
		t.Fatalf("expected anonymous after logout, got %s", current)
	}
}

func TestSessionManager_Logout_WithoutSession(t *testing.T) {
	_, m := newTestSessionManager(t)
	sess := &stubSession{}

	if _, err := m.Logout(context.Background(), sess); err != nil {
		t.Fatalf("logout of anonymous session should succeed: %v", err)
	}
	if !sess.invalidated {
		t.Fatalf("expected session to be invalidated unconditionally")
	}
}
