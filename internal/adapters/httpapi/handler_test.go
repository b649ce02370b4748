package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
	"github.com/opsenary/apptracker/internal/core/usecase"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[int64]domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[int64]domain.User{}, nextID: 1}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Get(_ context.Context, id int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user)
	}
	return result, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type stubTokenRepo struct {
	tokens map[string]domain.UserToken
}

func (r *stubTokenRepo) FindByTokenHash(_ context.Context, hash string) (domain.UserToken, error) {
	token, ok := r.tokens[hash]
	if !ok {
		return domain.UserToken{}, domain.ErrNotFound
	}
	return token, nil
}

func (r *stubTokenRepo) Upsert(_ context.Context, token domain.UserToken) error {
	r.tokens[token.TokenHash] = token
	return nil
}

type stubServerRepo struct {
	mu      sync.Mutex
	servers map[int64]domain.Server
	nextID  int64
}

func newStubServerRepo() *stubServerRepo {
	return &stubServerRepo{servers: map[int64]domain.Server{}, nextID: 1}
}

func (r *stubServerRepo) Create(_ context.Context, s *domain.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID
	r.nextID++
	r.servers[s.ID] = *s
	return nil
}

func (r *stubServerRepo) Save(_ context.Context, s *domain.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servers[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.servers[s.ID] = *s
	return nil
}

func (r *stubServerRepo) Get(_ context.Context, id int64) (domain.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return domain.Server{}, domain.ErrNotFound
	}
	return s, nil
}

func (r *stubServerRepo) List(_ context.Context) ([]domain.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Server, 0, len(r.servers))
	for _, s := range r.servers {
		result = append(result, s)
	}
	return result, nil
}

func (r *stubServerRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.servers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.servers, id)
	return nil
}

func (r *stubServerRepo) CreateInstallation(_ context.Context, _ *domain.LanguageInstallation) error {
	return nil
}

func (r *stubServerRepo) SaveInstallation(_ context.Context, _ *domain.LanguageInstallation) error {
	return domain.ErrNotFound
}

func (r *stubServerRepo) GetInstallation(_ context.Context, _ int64) (domain.LanguageInstallation, error) {
	return domain.LanguageInstallation{}, domain.ErrNotFound
}

func (r *stubServerRepo) ListInstallations(_ context.Context, _ int64) ([]domain.LanguageInstallation, error) {
	return nil, nil
}

func (r *stubServerRepo) DeleteInstallation(_ context.Context, _ int64) error {
	return domain.ErrNotFound
}

func (r *stubServerRepo) CreateInstance(_ context.Context, _ *domain.DatastoreInstance) error {
	return nil
}

func (r *stubServerRepo) SaveInstance(_ context.Context, _ *domain.DatastoreInstance) error {
	return domain.ErrNotFound
}

func (r *stubServerRepo) GetInstance(_ context.Context, _ int64) (domain.DatastoreInstance, error) {
	return domain.DatastoreInstance{}, domain.ErrNotFound
}

func (r *stubServerRepo) ListInstances(_ context.Context, _ int64) ([]domain.DatastoreInstance, error) {
	return nil, nil
}

func (r *stubServerRepo) DeleteInstance(_ context.Context, _ int64) error {
	return domain.ErrNotFound
}

type stubSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *stubSink) Append(event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubSink) all() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.events...)
}

type stubResolver struct{}

func (stubResolver) Display(_ context.Context, _, _ string) (string, error) {
	return "", domain.ErrNotFound
}

type stubTrail struct {
	filter ports.AuditTrailFilter
	events []domain.AuditEvent
}

func (t *stubTrail) Read(_ context.Context, filter ports.AuditTrailFilter) ([]domain.AuditEvent, error) {
	t.filter = filter
	return t.events, nil
}

type testEnv struct {
	handler *Handler
	sink    *stubSink
	trail   *stubTrail
	servers *stubServerRepo
}

// newTestEnv wires a handler over in-memory stubs with two known accounts:
// root/admin-token (application_admin) and viewer/viewer-token (business_user).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newStubUserRepo()
	admin := domain.User{Username: "root", FullName: "Root Admin", Role: domain.RoleApplicationAdmin, Active: true}
	viewer := domain.User{Username: "viewer", FullName: "Business Viewer", Role: domain.RoleBusinessUser, Active: true}
	if err := users.Create(context.Background(), &admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := users.Create(context.Background(), &viewer); err != nil {
		t.Fatalf("seed viewer: %v", err)
	}

	tokens := &stubTokenRepo{tokens: map[string]domain.UserToken{
		usecase.HashToken("admin-token"):  {TokenHash: usecase.HashToken("admin-token"), UserID: admin.ID, Active: true},
		usecase.HashToken("viewer-token"): {TokenHash: usecase.HashToken("viewer-token"), UserID: viewer.ID, Active: true},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := &stubSink{}
	recorder := usecase.NewAuditRecorder(sink, stubResolver{}, nil, nil, logger)

	servers := newStubServerRepo()
	trail := &stubTrail{}

	handler := NewHandler(
		usecase.NewAuthService(tokens, users),
		usecase.NewUserService(users, recorder),
		nil,
		usecase.NewServerService(servers, recorder),
		nil,
		usecase.NewAuditService(trail),
		logger,
	)
	return &testEnv{handler: handler, sink: sink, trail: trail, servers: servers}
}

func (e *testEnv) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("X-API-Key", token)
	}
	rec := httptest.NewRecorder()
	e.handler.Router().ServeHTTP(rec, req)
	return rec
}

const serverBody = `{"name":"Web 1","hostname":"web01","ip_address":"10.0.0.1","environment_type":"virtual","active":true,"manager_notes":"rack 4"}`

func TestMissingTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/servers", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/v1/servers", "no-such-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
}

func TestBearerTokenIsAccepted(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	env.handler.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBusinessUserCannotCreateServers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/servers", "viewer-token", serverBody)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := len(env.sink.all()); got != 0 {
		t.Fatalf("expected no audit events, got %d", got)
	}
}

func TestCreateServerRecordsAuditEvent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/servers", "admin-token", serverBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp serverResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == 0 || resp.Hostname != "web01" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	events := env.sink.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	event := events[0]
	if event.Action != domain.ActionCreate || event.Model != "inventory.Server" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.User != "root" {
		t.Fatalf("expected actor root, got %q", event.User)
	}
}

func TestManagerNotesHiddenFromBusinessUsers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/servers", "admin-token", serverBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "rack 4") {
		t.Fatal("expected manager notes in admin response")
	}

	rec = env.do(t, http.MethodGet, "/v1/servers/1", "viewer-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "rack 4") {
		t.Fatalf("manager notes leaked to business user: %s", rec.Body.String())
	}
}

func TestUnknownJSONFieldIsRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/servers", "admin-token", `{"name":"x","bogus":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestInvalidServerPayloadReturnsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	body := `{"name":"Web 1","hostname":"web01","ip_address":"10.0.0.1","environment_type":"mainframe"}`
	rec := env.do(t, http.MethodPost, "/v1/servers", "admin-token", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetServerNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/servers/999", "admin-token", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUserManagementRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	body := `{"username":"carol","full_name":"Carol","role":"technician","active":true}`
	rec := env.do(t, http.MethodPost, "/v1/users", "viewer-token", body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/users", "admin-token", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuditTrailQueryPassesFilter(t *testing.T) {
	env := newTestEnv(t)
	env.trail.events = []domain.AuditEvent{{
		Timestamp: "2026-08-30 10:00:00",
		Action:    domain.ActionUpdate,
		Model:     "inventory.Server",
		ObjectID:  "1",
		User:      "alice",
	}}

	rec := env.do(t, http.MethodGet, "/v1/audit?user=alice&action=UPDATE&model=server&tail=25", "admin-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	filter := env.trail.filter
	if filter.User != "alice" || filter.Action != "UPDATE" || filter.Model != "server" || filter.Tail != 25 {
		t.Fatalf("unexpected filter: %+v", filter)
	}
	if !strings.Contains(rec.Body.String(), "inventory.Server") {
		t.Fatalf("expected event in body: %s", rec.Body.String())
	}
}

func TestAuditTrailRejectsBadTail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/audit?tail=many", "admin-token", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
