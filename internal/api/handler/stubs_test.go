package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
	"github.com/kata/useradmin/internal/core/security"
)

// ---------------------------------------------------------------------------
// Test harness
// ---------------------------------------------------------------------------

// recordingRenderer keeps the last page name and data instead of executing
// templates.
type recordingRenderer struct {
	name string
	data echo.Map
}

func (r *recordingRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	r.name = name
	r.data, _ = data.(echo.Map)
	_, err := io.WriteString(w, name)
	return err
}

func (r *recordingRenderer) flashes() websession.Flashes {
	f, _ := r.data["Flashes"].(websession.Flashes)
	return f
}

func (r *recordingRenderer) fieldErrors() FieldErrors {
	fe, _ := r.data["Errors"].(FieldErrors)
	return fe
}

type harness struct {
	e        *echo.Echo
	renderer *recordingRenderer
	errs     []error
}

func newHarness() *harness {
	h := &harness{renderer: &recordingRenderer{}}
	e := echo.New()
	e.Renderer = h.renderer
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		h.errs = append(h.errs, err)
		_ = c.NoContent(http.StatusTeapot)
	}
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))))
	h.e = e
	return h
}

func (h *harness) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return h.serve(req, cookies)
}

func (h *harness) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return h.serve(req, cookies)
}

func (h *harness) serve(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubSessionManager struct {
	loginFn      func(identifier, password string) (security.LoginState, error)
	loggedOut    int
	identifier   string
	password     string
	bindOnLogin  *security.Principal
	logoutResult error
}

func (s *stubSessionManager) Login(_ context.Context, sess ports.Session, identifier, password string) (security.LoginState, error) {
	s.identifier, s.password = identifier, password
	if s.loginFn != nil {
		return s.loginFn(identifier, password)
	}
	if s.bindOnLogin != nil {
		if err := sess.Bind(*s.bindOnLogin); err != nil {
			return security.StateAnonymous, err
		}
	}
	return security.StateAuthenticated, nil
}

func (s *stubSessionManager) Logout(_ context.Context, sess ports.Session) (security.LoginState, error) {
	s.loggedOut++
	if s.logoutResult != nil {
		return security.StateAnonymous, s.logoutResult
	}
	return security.StateAnonymous, sess.Invalidate()
}

func (s *stubSessionManager) Current(sess ports.Session) (*security.Principal, security.LoginState) {
	if p, ok := sess.Principal(); ok {
		return p, security.StateAuthenticated
	}
	return nil, security.StateAnonymous
}

type stubUserService struct {
	users     []*domain.User
	created   []ports.UserInput
	updated   map[int64]ports.UserInput
	deleted   []int64
	createErr error
	updateErr error
}

func newStubUserService(users ...*domain.User) *stubUserService {
	return &stubUserService{users: users, updated: map[int64]ports.UserInput{}}
}

func (s *stubUserService) ListAll(context.Context) ([]*domain.User, error) {
	return s.users, nil
}

func (s *stubUserService) GetByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserService) Create(_ context.Context, in ports.UserInput) (*domain.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, in)
	return &domain.User{ID: int64(len(s.users) + len(s.created)), Username: in.Username}, nil
}

func (s *stubUserService) Update(ctx context.Context, id int64, in ports.UserInput) (*domain.User, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.updated[id] = in
	return u, nil
}

func (s *stubUserService) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubUserService) ListRoles(context.Context) ([]domain.Role, error) {
	return []domain.Role{{ID: 1, Name: domain.RoleAdmin}, {ID: 2, Name: domain.RoleUser}}, nil
}

func (s *stubUserService) EnsureAdmin(context.Context, ports.BootstrapAdmin) (bool, error) {
	return false, nil
}

type stubDirectoryService struct {
	users     map[string]*domain.DirectoryUser
	created   []ports.DirectoryInput
	updated   map[string]ports.DirectoryInput
	deleted   []string
	createErr error
}

func newStubDirectoryService(users ...*domain.DirectoryUser) *stubDirectoryService {
	s := &stubDirectoryService{users: map[string]*domain.DirectoryUser{}, updated: map[string]ports.DirectoryInput{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubDirectoryService) ListAll(context.Context) ([]*domain.DirectoryUser, error) {
	out := make([]*domain.DirectoryUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubDirectoryService) GetByID(_ context.Context, id string) (*domain.DirectoryUser, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubDirectoryService) Create(_ context.Context, in ports.DirectoryInput) (*domain.DirectoryUser, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, in)
	return &domain.DirectoryUser{ID: "new", Name: in.Name, Email: in.Email}, nil
}

func (s *stubDirectoryService) Update(ctx context.Context, id string, in ports.DirectoryInput) (*domain.DirectoryUser, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.updated[id] = in
	return u, nil
}

func (s *stubDirectoryService) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}
