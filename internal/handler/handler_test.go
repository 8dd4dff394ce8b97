// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/kiorffen/blogfront/internal/api"
	"github.com/kiorffen/blogfront/internal/middleware"
	"github.com/kiorffen/blogfront/internal/model"
	"github.com/kiorffen/blogfront/internal/render"
	"github.com/kiorffen/blogfront/internal/service"
	"github.com/kiorffen/blogfront/internal/session"
	"github.com/kiorffen/blogfront/internal/store"
	"github.com/kiorffen/blogfront/web"
)

// recordedRequest captures one request the fake backend received.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   string
}

// fakeBackend is a stub of the blog backend API. Fixture fields feed the
// read endpoints; fail entries override individual routes with an error
// status. Every request is recorded for assertions.
type fakeBackend struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	articles   []model.Article
	total      int64
	article    *model.Article
	comments   []model.Comment
	categories []model.Category
	loginUser  *model.User
	loginToken string

	fail     map[string]int    // "METHOD /path" -> status
	failBody map[string]string // "METHOD /path" -> response body
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{
		fail:     make(map[string]int),
		failBody: make(map[string]string),
	}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

// failWith makes one route answer with the given status and body.
func (fb *fakeBackend) failWith(method, path string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.fail[method+" "+path] = status
	fb.failBody[method+" "+path] = body
}

// recorded returns a copy of the requests seen so far.
func (fb *fakeBackend) recorded() []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]recordedRequest(nil), fb.requests...)
}

// received reports whether any recorded request matches method and path.
func (fb *fakeBackend) received(method, path string) bool {
	for _, req := range fb.recorded() {
		if req.Method == method && req.Path == path {
			return true
		}
	}
	return false
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	fb.mu.Lock()
	fb.requests = append(fb.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	status, failed := fb.fail[r.Method+" "+r.URL.Path]
	failBody := fb.failBody[r.Method+" "+r.URL.Path]
	fb.mu.Unlock()

	if failed {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(failBody))
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/articles":
		fb.writeJSON(w, model.ArticlePage{Data: fb.articles, Total: fb.total})

	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/comments"):
		if fb.comments == nil {
			_, _ = w.Write([]byte("[]"))
			return
		}
		fb.writeJSON(w, fb.comments)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/articles/"):
		if fb.article == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fb.writeJSON(w, fb.article)

	case r.Method == http.MethodGet && r.URL.Path == "/categories":
		if fb.categories == nil {
			_, _ = w.Write([]byte("[]"))
			return
		}
		fb.writeJSON(w, fb.categories)

	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		if fb.loginUser == nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("invalid username or password"))
			return
		}
		fb.writeJSON(w, map[string]any{"token": fb.loginToken, "user": fb.loginUser})

	default:
		// Mutation endpoints answer 200 with no body.
		w.WriteHeader(http.StatusOK)
	}
}

func (fb *fakeBackend) writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// testApp wires the full router against a fake backend and drives it over
// a real HTTP server so session cookies behave as in production.
type testApp struct {
	backend  *fakeBackend
	srv      *httptest.Server
	client   *http.Client
	sessions *session.Store
	guard    *middleware.FormGuard
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := newFakeBackend(t)

	manager := scs.New()
	sessions := session.NewStore(manager)

	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("sub templates: %v", err)
	}
	renderer, err := render.New(render.Config{TemplatesFS: templates, SessionManager: manager})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	db, err := store.NewDB(":memory:")
	if err != nil {
		t.Fatalf("store.NewDB: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Init(db); err != nil {
		t.Fatalf("store.Init: %v", err)
	}

	apiClient := api.NewClient(backend.srv.URL)
	guard := middleware.NewFormGuard(manager)
	categories := service.NewCategoryService(apiClient)

	// Limits high enough to never interfere with tests that are not
	// about throttling.
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 1000,
	})

	pub := NewPublicHandler(apiClient, renderer, sessions, lp, guard, 10)
	adm := NewAdminHandler(apiClient, renderer, categories, store.New(db), guard, 10)

	router := Routes(pub, adm, sessions, lp)

	// Seed endpoints let tests establish a session cookie without going
	// through the login flow. The response body is a fresh form token.
	router.Get("/test/seed-admin", func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Save(r.Context(), "admin-token", model.User{ID: model.AdminUserID, Username: "admin"}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(guard.Issue(r.Context())))
	})
	router.Get("/test/seed-user", func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Save(r.Context(), "user-token", model.User{ID: 2, Username: "bob"}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})

	srv := httptest.NewServer(manager.LoadAndSave(router))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{
		backend:  backend,
		srv:      srv,
		client:   client,
		sessions: sessions,
		guard:    guard,
	}
}

// get performs a GET and returns the response with its body read.
func (app *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	resp, err := app.client.Get(app.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, string(body)
}

// postForm performs a form POST and returns the response with its body read.
func (app *testApp) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()

	resp, err := app.client.PostForm(app.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, string(body)
}

// loginAsAdmin seeds an admin session and returns a form token.
func (app *testApp) loginAsAdmin(t *testing.T) string {
	t.Helper()

	resp, body := app.get(t, "/test/seed-admin")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed-admin: status %d", resp.StatusCode)
	}
	return body
}

// loginAsUser seeds a regular, non-admin session.
func (app *testApp) loginAsUser(t *testing.T) {
	t.Helper()

	resp, _ := app.get(t, "/test/seed-user")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed-user: status %d", resp.StatusCode)
	}
}

var formTokenRe = regexp.MustCompile(`name="form_token" value="([^"]+)"`)

// pageFormToken extracts the one-time form token from a rendered page.
func pageFormToken(t *testing.T, body string) string {
	t.Helper()

	m := formTokenRe.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("no form token in page")
	}
	return m[1]
}

// assertRedirect fails unless the response is a 303 to the given location.
func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

// testArticle returns a fixture article.
func testArticle(id int64, title string) model.Article {
	return model.Article{
		ID:         id,
		Title:      title,
		Content:    "# Hello\n\nSome *markdown* content.",
		IsMarkdown: true,
		UserID:     1,
		User:       model.Author{ID: 1, Username: "admin"},
		Categories: []model.Category{{ID: 1, Name: "Go"}},
		CreatedAt:  time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC),
	}
}
