package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
	"github.com/grademind/grademind-api/internal/core/service"
)

// fakeAuth accepts tokens of the form "<username>-token" for the users it holds.
type fakeAuth struct {
	users     map[string]*domain.User
	loggedOut []string
}

func (f *fakeAuth) Register(context.Context, ports.RegisterInput) (*domain.PublicUser, error) {
	return nil, domain.ErrStorageConflict
}

func (f *fakeAuth) Login(context.Context, ports.LoginInput) (*ports.LoginResult, error) {
	return nil, domain.ErrInvalidCredentials
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	for name, u := range f.users {
		if token == name+"-token" {
			return u, nil
		}
	}
	return nil, domain.ErrInvalidToken
}

func (f *fakeAuth) Logout(_ context.Context, token string) {
	f.loggedOut = append(f.loggedOut, token)
}

func (f *fakeAuth) Sessions(context.Context, int64) ([]*domain.Session, error) {
	return nil, nil
}

type fakeUsers struct{}

func (fakeUsers) Get(_ context.Context, id int64) (*domain.PublicUser, error) {
	return nil, domain.ErrUserNotFound
}

func (fakeUsers) List(context.Context, ports.ListUsersInput) ([]*domain.PublicUser, error) {
	return []*domain.PublicUser{{ID: 2, Username: "budi", Role: domain.RoleStudent}}, nil
}

func (fakeUsers) UpdateProfile(context.Context, int64, ports.UpdateProfileInput) (*domain.PublicUser, error) {
	return nil, nil
}

func (fakeUsers) SetActive(_ context.Context, actor *domain.User, _ int64, _ bool) (*domain.PublicUser, error) {
	return nil, domain.ErrForbidden
}

func (fakeUsers) Delete(context.Context, *domain.User, int64) error {
	return domain.ErrForbidden
}

func newTestRouter(t *testing.T) (http.Handler, *fakeAuth) {
	t.Helper()
	return newLoggedTestRouter(t, zerolog.Nop())
}

func newLoggedTestRouter(t *testing.T, log zerolog.Logger) (http.Handler, *fakeAuth) {
	t.Helper()
	auth := &fakeAuth{users: map[string]*domain.User{
		"dosen": {ID: 1, Username: "dosen", Role: domain.RoleLecturer, IsActive: true},
		"budi":  {ID: 2, Username: "budi", Role: domain.RoleStudent, IsActive: true},
	}}
	e := NewRouter(Deps{
		Log:         log,
		AuthService: auth,
		UserService: fakeUsers{},
		Registry:    prometheus.NewRegistry(),
	})
	return e, auth
}

func serve(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ProtectedRoutesRequireBearer(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, target := range []string{"/auth/me", "/auth/sessions", "/users", "/users/me", "/users/2"} {
		rec := serve(h, http.MethodGet, target, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", target, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("%s: missing WWW-Authenticate challenge", target)
		}
	}
}

func TestRouter_UserListIsLecturerOnly(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := serve(h, http.MethodGet, "/users", "budi-token")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student: expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "only lecturers") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = serve(h, http.MethodGet, "/users", "dosen-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("lecturer: expected 200, got %d", rec.Code)
	}
}

func TestRouter_MeRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, target := range []string{"/auth/me", "/users/me"} {
		rec := serve(h, http.MethodGet, target, "budi-token")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"username":"budi"`) {
			t.Fatalf("%s: unexpected body: %s", target, rec.Body.String())
		}
	}
}

func TestRouter_UserLookupNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := serve(h, http.MethodGet, "/users/99", "dosen-token")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_LogoutIsPublicAndNeverFails(t *testing.T) {
	h, auth := newTestRouter(t)

	rec := serve(h, http.MethodPost, "/auth/logout", "anything")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = serve(h, http.MethodPost, "/auth/logout?token=from-query", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(auth.loggedOut) != 2 || auth.loggedOut[0] != "anything" || auth.loggedOut[1] != "from-query" {
		t.Fatalf("unexpected logout calls: %v", auth.loggedOut)
	}
}

func TestRouter_RequestLogOmitsQueryToken(t *testing.T) {
	var buf bytes.Buffer
	h, auth := newLoggedTestRouter(t, zerolog.New(&buf))

	const secret = "eyJhbGciOiJIUzI1NiJ9.c2VjcmV0.sig"
	rec := serve(h, http.MethodPost, "/auth/logout?token="+secret, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(auth.loggedOut) != 1 || auth.loggedOut[0] != secret {
		t.Fatalf("unexpected logout calls: %v", auth.loggedOut)
	}

	out := buf.String()
	if strings.Contains(out, secret) {
		t.Fatalf("token leaked into request log: %s", out)
	}
	if !strings.Contains(out, `"path":"/auth/logout"`) {
		t.Fatalf("request path missing from log: %s", out)
	}
}

func TestRouter_LoginFailureIsUnauthorized(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"x","password":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), domain.ErrInvalidCredentials.Error()) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t)

	if rec := serve(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health: expected 200, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health/ready: expected 200, got %d", rec.Code)
	}

	rec := serve(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "grademind_http_requests_total") {
		t.Fatalf("request metrics missing from /metrics")
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := serve(h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// Compile-time check that the production service satisfies the router's port.
var _ ports.AuthService = (*service.AuthService)(nil)
