package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/99minutos/user-management/internal/api/handler"
	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/core/service"
	"github.com/99minutos/user-management/internal/infrastructure/db/sqlite"
	"github.com/99minutos/user-management/internal/infrastructure/queue"
)

// app is the full stack over an in-memory SQLite database.
type app struct {
	e         *echo.Echo
	db        *gorm.DB
	lifecycle *service.UserLifecycle
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	db, err := sqlite.Open(ctx, sqlite.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := service.SeedRoles(ctx, sqlite.NewRoleRepository(db), log); err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	dispatcher := queue.NewDispatcher(2, sqlite.NewAuditRepository(db), log)
	dispatcher.Start(ctx)
	t.Cleanup(func() {
		_ = dispatcher.Stop(context.Background())
		_ = sqlite.Close(db)
	})

	repo := sqlite.NewUserRepository(db)
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	tokens := service.NewTokenService("test-secret", time.Hour, sqlite.NewTokenStore(db), nil)
	lifecycle := service.NewUserLifecycle(repo, hasher, nil, dispatcher, log)

	registry := prometheus.NewRegistry()
	e := NewRouter(Dependencies{
		AuthService: service.NewAuthService(repo, lifecycle, hasher, tokens, dispatcher, log),
		UserService: service.NewUserService(lifecycle, log),
		Readiness: map[string]handler.Check{
			"sqlite": func(ctx context.Context) error { return sqlite.Ping(ctx, db) },
		},
		Log:        log,
		Registerer: registry,
		Gatherer:   registry,
	})

	return &app{e: e, db: db, lifecycle: lifecycle}
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

type userData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authData struct {
	User        userData `json:"user"`
	AccessToken string   `json:"access_token"`
}

func (a *app) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

// admin creates an administrator directly and logs them in.
func (a *app) admin(t *testing.T) string {
	t.Helper()
	_, err := a.lifecycle.Create(context.Background(), ports.CreateUserInput{
		Name: "Admin", Email: "admin@example.com", Password: "adminpass", Role: domain.RoleAdmin,
	}, "")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return a.login(t, "admin@example.com", "adminpass")
}

func (a *app) login(t *testing.T, email, password string) string {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/v1/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", email, code, env.Message)
	}
	return decodeData[authData](t, env).AccessToken
}

func TestRegister_JohnDoe(t *testing.T) {
	a := newApp(t)

	code, env := a.do(t, http.MethodPost, "/api/v1/register", "",
		`{"name":"John Doe","email":"john1@example.com","password":"password"}`)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%+v)", code, env)
	}
	data := decodeData[authData](t, env)
	if !env.Success || env.Message != "User registered successfully" || data.AccessToken == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if data.User.Role != "user" || data.User.ID == "" {
		t.Fatalf("unexpected user: %+v", data.User)
	}
}

func TestRegister_IgnoresRole(t *testing.T) {
	a := newApp(t)

	_, env := a.do(t, http.MethodPost, "/api/v1/register", "",
		`{"name":"Mallory","email":"mallory@example.com","password":"password","role":"admin"}`)
	if got := decodeData[authData](t, env).User.Role; got != "user" {
		t.Fatalf("self-registration must assign user, got %s", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	a := newApp(t)

	code, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"","email":"nope","password":"x"}`)
	if code != http.StatusUnprocessableEntity || env.Success {
		t.Fatalf("expected 422, got %d (%+v)", code, env)
	}
	for _, field := range []string{"name", "email", "password"} {
		if len(env.Errors[field]) == 0 {
			t.Fatalf("expected error for %s: %+v", field, env.Errors)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	a := newApp(t)
	body := `{"name":"John Doe","email":"john1@example.com","password":"password"}`

	a.do(t, http.MethodPost, "/api/v1/register", "", body)
	code, env := a.do(t, http.MethodPost, "/api/v1/register", "", body)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if len(env.Errors["email"]) == 0 {
		t.Fatalf("expected email error, got %+v", env.Errors)
	}
}

func TestRegister_BlankNameAndLongPassword(t *testing.T) {
	a := newApp(t)
	long := strings.Repeat("p", 100)

	code, env := a.do(t, http.MethodPost, "/api/v1/register", "",
		`{"name":"   ","email":"blank@example.com","password":"`+long+`"}`)
	if code != http.StatusUnprocessableEntity || env.Message != "The given data was invalid." {
		t.Fatalf("expected 422, got %d (%+v)", code, env)
	}
	if got := env.Errors["name"]; len(got) == 0 || got[0] != "The name field is required." {
		t.Fatalf("unexpected name errors: %+v", env.Errors)
	}
	if got := env.Errors["password"]; len(got) == 0 || got[0] != "The password may not be greater than 72 characters." {
		t.Fatalf("unexpected password errors: %+v", env.Errors)
	}

	var count int64
	a.db.Table("users").Count(&count)
	if count != 0 {
		t.Fatalf("rejected registration stored %d users", count)
	}
}

func TestAdminCreate_BlankNameRejected(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin(t)

	code, env := a.do(t, http.MethodPost, "/api/v1/users", adminToken,
		`{"name":" \t ","email":"jane@example.com","password":"password","role":"user"}`)
	if code != http.StatusUnprocessableEntity || len(env.Errors["name"]) == 0 {
		t.Fatalf("expected 422 with name error, got %d (%+v)", code, env)
	}
}

func TestUpdate_BlankNameAndLongPasswordRejected(t *testing.T) {
	a := newApp(t)
	_, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"John","email":"john@example.com","password":"password"}`)
	john := decodeData[authData](t, env)
	path := "/api/v1/users/" + john.User.ID

	code, env := a.do(t, http.MethodPut, path, john.AccessToken, `{"name":"   "}`)
	if code != http.StatusUnprocessableEntity || len(env.Errors["name"]) == 0 {
		t.Fatalf("blank name: expected 422, got %d (%+v)", code, env)
	}

	code, env = a.do(t, http.MethodPut, path, john.AccessToken, `{"password":"`+strings.Repeat("p", 100)+`"}`)
	if code != http.StatusUnprocessableEntity || len(env.Errors["password"]) == 0 {
		t.Fatalf("long password: expected 422, got %d (%+v)", code, env)
	}

	// 72 two-byte runes pass the character limit but not bcrypt's byte limit.
	code, env = a.do(t, http.MethodPut, path, john.AccessToken, `{"password":"`+strings.Repeat("é", 72)+`"}`)
	if code != http.StatusUnprocessableEntity || len(env.Errors["password"]) == 0 {
		t.Fatalf("multi-byte password: expected 422, got %d (%+v)", code, env)
	}

	code, env = a.do(t, http.MethodGet, path, john.AccessToken, "")
	if got := decodeData[userData](t, env); code != http.StatusOK || got.Name != "John" {
		t.Fatalf("rejected updates changed the user: %d %+v", code, got)
	}
	a.login(t, "john@example.com", "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	a := newApp(t)
	a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"John","email":"john@example.com","password":"password"}`)

	code, env := a.do(t, http.MethodPost, "/api/v1/login", "", `{"email":"john@example.com","password":"wrong-password"}`)
	if code != http.StatusUnauthorized || env.Message != "Invalid credentials" {
		t.Fatalf("expected 401 Invalid credentials, got %d %q", code, env.Message)
	}

	code, ghost := a.do(t, http.MethodPost, "/api/v1/login", "", `{"email":"ghost@example.com","password":"wrong-password"}`)
	if code != http.StatusUnauthorized || ghost.Message != env.Message {
		t.Fatalf("unknown email must look identical, got %d %q", code, ghost.Message)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	a := newApp(t)
	_, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"John","email":"john@example.com","password":"password"}`)
	reg := decodeData[authData](t, env)

	if code, _ := a.do(t, http.MethodGet, "/api/v1/users/"+reg.User.ID, reg.AccessToken, ""); code != http.StatusOK {
		t.Fatalf("token should work before logout, got %d", code)
	}

	code, out := a.do(t, http.MethodPost, "/api/v1/logout", reg.AccessToken, "")
	if code != http.StatusOK || out.Message != "Logged out successfully" {
		t.Fatalf("logout: %d %+v", code, out)
	}

	if code, _ := a.do(t, http.MethodGet, "/api/v1/users/"+reg.User.ID, reg.AccessToken, ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", code)
	}
	if code, _ := a.do(t, http.MethodPost, "/api/v1/logout", reg.AccessToken, ""); code != http.StatusUnauthorized {
		t.Fatalf("second logout must be 401, got %d", code)
	}
}

func TestUsers_RequireToken(t *testing.T) {
	a := newApp(t)

	code, env := a.do(t, http.MethodGet, "/api/v1/users/anything", "", "")
	if code != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401, got %d", code)
	}
	if code, _ := a.do(t, http.MethodGet, "/api/v1/users/anything", "garbage", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", code)
	}
}

func TestAdminCreatesUser_ViewRules(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin(t)

	code, env := a.do(t, http.MethodPost, "/api/v1/users", adminToken,
		`{"name":"Jane","email":"jane@example.com","password":"password","role":"user"}`)
	if code != http.StatusCreated || env.Message != "User created successfully" {
		t.Fatalf("admin create: %d %+v", code, env)
	}
	jane := decodeData[userData](t, env)

	janeToken := a.login(t, "jane@example.com", "password")
	code, env = a.do(t, http.MethodGet, "/api/v1/users/"+jane.ID, janeToken, "")
	if code != http.StatusOK || decodeData[userData](t, env).Email != "jane@example.com" {
		t.Fatalf("self view: %d %+v", code, env)
	}

	a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"Eve","email":"eve@example.com","password":"password"}`)
	eveToken := a.login(t, "eve@example.com", "password")

	code, env = a.do(t, http.MethodGet, "/api/v1/users/"+jane.ID, eveToken, "")
	if code != http.StatusForbidden {
		t.Fatalf("other non-admin must get 403, got %d", code)
	}
	if env.Message != "You are unauthorized to view user." {
		t.Fatalf("unexpected message: %q", env.Message)
	}
}

func TestNonAdminCannotCreateOrDelete(t *testing.T) {
	a := newApp(t)
	_, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"Eve","email":"eve@example.com","password":"password"}`)
	eve := decodeData[authData](t, env)

	code, env := a.do(t, http.MethodPost, "/api/v1/users", eve.AccessToken,
		`{"name":"X","email":"x@example.com","password":"password","role":"admin"}`)
	if code != http.StatusForbidden || env.Message != "You are unauthorized to create user." {
		t.Fatalf("create: expected 403, got %d %q", code, env.Message)
	}

	if code, _ := a.do(t, http.MethodDelete, "/api/v1/users/"+eve.User.ID, eve.AccessToken, ""); code != http.StatusForbidden {
		t.Fatalf("self delete: expected 403, got %d", code)
	}
}

func TestDeleteThenGet_NotFound(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin(t)

	_, env := a.do(t, http.MethodPost, "/api/v1/users", adminToken,
		`{"name":"Jane","email":"jane@example.com","password":"password","role":"user"}`)
	jane := decodeData[userData](t, env)

	code, env := a.do(t, http.MethodDelete, "/api/v1/users/"+jane.ID, adminToken, "")
	if code != http.StatusOK || env.Message != "User deleted successfully" {
		t.Fatalf("delete: %d %+v", code, env)
	}

	if code, _ := a.do(t, http.MethodGet, "/api/v1/users/"+jane.ID, adminToken, ""); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
	if code, _ := a.do(t, http.MethodDelete, "/api/v1/users/"+jane.ID, adminToken, ""); code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", code)
	}
}

func TestDeletedUserTokenStopsWorking(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin(t)

	_, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"Eve","email":"eve@example.com","password":"password"}`)
	eve := decodeData[authData](t, env)

	a.do(t, http.MethodDelete, "/api/v1/users/"+eve.User.ID, adminToken, "")

	if code, _ := a.do(t, http.MethodGet, "/api/v1/users/"+eve.User.ID, eve.AccessToken, ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user's token, got %d", code)
	}
}

func TestPartialUpdate_KeepsOtherFields(t *testing.T) {
	a := newApp(t)
	_, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"John","email":"john@example.com","password":"password"}`)
	john := decodeData[authData](t, env)

	code, env := a.do(t, http.MethodPut, "/api/v1/users/"+john.User.ID, john.AccessToken, `{"name":"Johnny"}`)
	if code != http.StatusOK || env.Message != "User updated successfully" {
		t.Fatalf("update: %d %+v", code, env)
	}
	got := decodeData[userData](t, env)
	if got.Name != "Johnny" || got.Email != "john@example.com" || got.Role != "user" {
		t.Fatalf("unexpected user after partial update: %+v", got)
	}

	// The old password still works: it was not part of the update.
	a.login(t, "john@example.com", "password")
}

func TestUpdate_RoleChangeNeedsAdmin(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin(t)
	_, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"John","email":"john@example.com","password":"password"}`)
	john := decodeData[authData](t, env)

	code, env := a.do(t, http.MethodPut, "/api/v1/users/"+john.User.ID, john.AccessToken, `{"role":"admin"}`)
	if code != http.StatusForbidden || env.Message != "You are unauthorized to assign role to user." {
		t.Fatalf("self promotion: expected 403, got %d %q", code, env.Message)
	}

	code, env = a.do(t, http.MethodPut, "/api/v1/users/"+john.User.ID, adminToken, `{"role":"admin"}`)
	if code != http.StatusOK || decodeData[userData](t, env).Role != "admin" {
		t.Fatalf("admin promotion: %d %+v", code, env)
	}
}

func TestUpdate_OtherUserForbiddenBeforeLookup(t *testing.T) {
	a := newApp(t)
	_, env := a.do(t, http.MethodPost, "/api/v1/register", "", `{"name":"John","email":"john@example.com","password":"password"}`)
	john := decodeData[authData](t, env)

	if code, _ := a.do(t, http.MethodPut, "/api/v1/users/does-not-exist", john.AccessToken, `{"name":"x"}`); code != http.StatusForbidden {
		t.Fatalf("expected 403 for someone else's id, got %d", code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	a := newApp(t)

	for _, path := range []string{"/health", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		a.e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t)
	a.do(t, http.MethodPost, "/api/v1/login", "", `{"email":"ghost@example.com","password":"password"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "users_http_requests_total") {
		t.Fatalf("expected http request metrics in output")
	}
}

func TestUnknownRoute_Envelope(t *testing.T) {
	a := newApp(t)

	code, env := a.do(t, http.MethodGet, "/api/v1/nope", "", "")
	if code != http.StatusNotFound || env.Success {
		t.Fatalf("expected 404 envelope, got %d %+v", code, env)
	}
}
