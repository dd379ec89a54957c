package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/database"
	"github.com/rasencioDatabrain/ChatManager/internal/gateway"
	"github.com/rasencioDatabrain/ChatManager/internal/models"
	"github.com/rasencioDatabrain/ChatManager/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testDBSeq int64

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	sessions session.Store
	cfg      *config.Config
	token    string
}

// newTestEnv builds a router backed by an in-memory database and logs in a
// test agent. The shared-cache DSN keeps the schema visible across the
// connections gorm pools.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	cfg := &config.Config{VerifyToken: "verify-me"}
	env := &testEnv{
		db:       db,
		sessions: session.NewMemoryStore(time.Hour),
		cfg:      cfg,
	}
	env.router = NewRouter(Deps{
		Config:   cfg,
		DB:       db,
		Sessions: env.sessions,
		Gateway:  gateway.NewClient(cfg),
	})

	env.createUser(t, "Agente Uno", "agent@test.local", "secret123")
	env.token = env.login(t, "agent@test.local", "secret123")
	return env
}

func (e *testEnv) createUser(t *testing.T, name, email, password string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user := models.User{Name: name, Email: email, PasswordHash: string(hash), Role: "agent", Status: "active"}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w := e.request("POST", "/api/login", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func (e *testEnv) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// do issues an authenticated request with the default test agent's token.
func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.request(method, path, e.token, body)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	w := env.request("GET", "/api/conversations", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	w = env.request("GET", "/api/conversations", "bogus-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}

	w = env.do("GET", "/api/conversations", nil)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	w := env.request("POST", "/api/login", "", gin.H{"email": "agent@test.local", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", w.Code)
	}

	w = env.request("POST", "/api/login", "", gin.H{"email": "nobody@test.local", "password": "secret123"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: status = %d, want 401", w.Code)
	}

	w = env.request("POST", "/api/login", "", gin.H{"email": "agent@test.local"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing password field: status = %d, want 400", w.Code)
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "Baja", "inactive@test.local", "secret123")
	if err := env.db.Model(&user).Update("status", "inactive").Error; err != nil {
		t.Fatal(err)
	}

	w := env.request("POST", "/api/login", "", gin.H{"email": "inactive@test.local", "password": "secret123"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("inactive user: status = %d, want 401", w.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout returned %d", w.Code)
	}

	w = env.do("GET", "/api/conversations", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: status = %d, want 401", w.Code)
	}
}

func TestLoginResponseHidesPasswordHash(t *testing.T) {
	env := newTestEnv(t)

	w := env.request("POST", "/api/login", "", gin.H{"email": "agent@test.local", "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d", w.Code)
	}
	var resp map[string]json.RawMessage
	decode(t, w, &resp)
	var user map[string]interface{}
	if err := json.Unmarshal(resp["user"], &user); err != nil {
		t.Fatal(err)
	}
	if _, ok := user["password_hash"]; ok {
		t.Error("login response exposes password_hash")
	}
}

func TestCreateUserDefaults(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/users", gin.H{
		"name":     "Nuevo Agente",
		"email":    "nuevo@test.local",
		"password": "changeme1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user returned %d: %s", w.Code, w.Body.String())
	}
	var user models.User
	decode(t, w, &user)
	if user.Role != "agent" || user.Status != "active" {
		t.Errorf("defaults = %s/%s, want agent/active", user.Role, user.Status)
	}

	// The new user can log in right away.
	env.login(t, "nuevo@test.local", "changeme1")
}

func TestCreateUserRequiresPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/users", gin.H{"name": "Sin Clave", "email": "sin@test.local"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing password: status = %d, want 400", w.Code)
	}
}

func TestUpdateUserKeepsPasswordWhenOmitted(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "Rename Me", "rename@test.local", "secret123")

	w := env.do("PUT", fmt.Sprintf("/api/users/%d", user.ID), gin.H{
		"name":  "Renamed",
		"email": "rename@test.local",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", w.Code, w.Body.String())
	}

	// Old password still works.
	env.login(t, "rename@test.local", "secret123")
}
