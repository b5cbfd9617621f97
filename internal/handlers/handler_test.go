// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory document store with fakes for the
// code store, session store and blob store.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/access"
	"inkwell/internal/auth"
	"inkwell/internal/blog"
	"inkwell/internal/docstore"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/session"
	"inkwell/internal/storage"
	"inkwell/internal/store"
	"inkwell/internal/uploads"
)

const (
	testAdmin   = "admin-1"
	testWriter  = "writer-1"
	testReader  = "reader-1"
	testBucket  = "media"
	testProject = "proj-1"
	testCode    = "424242"
)

// fixedCodes accepts testCode for any address a code was issued to.
type fixedCodes struct {
	mu     sync.Mutex
	issued map[string]bool
}

func (c *fixedCodes) Issue(_ context.Context, email string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued[email] = true
	return testCode, nil
}

func (c *fixedCodes) Verify(_ context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.issued[email] {
		return auth.ErrNoChallenge
	}
	if code != testCode {
		return auth.ErrInvalidCode
	}
	delete(c.issued, email)
	return nil
}

// nopSender drops codes.
type nopSender struct{}

func (nopSender) Send(context.Context, string, string) error { return nil }

// fakeSessions records session writes.
type fakeSessions struct {
	created   []*session.Data
	updated   []*session.Data
	destroyed int
	revoked   []string
}

func (f *fakeSessions) Create(_ context.Context, _ http.ResponseWriter, data *session.Data) (string, error) {
	f.created = append(f.created, data)
	return "sid", nil
}

func (f *fakeSessions) Update(_ context.Context, _ *http.Request, data *session.Data) error {
	f.updated = append(f.updated, data)
	return nil
}

func (f *fakeSessions) Destroy(context.Context, http.ResponseWriter, *http.Request) error {
	f.destroyed++
	return nil
}

func (f *fakeSessions) RevokeOthers(_ context.Context, _ *http.Request, userID string) (int, error) {
	f.revoked = append(f.revoked, userID)
	return 1, nil
}

// memFiles is an in-memory blob store serving both uploads and views.
type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	types map[string]string
}

func (m *memFiles) Upload(_ context.Context, bucket, fileID, contentType string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[bucket+"/"+fileID] = data
	m.types[bucket+"/"+fileID] = contentType
	return nil
}

func (m *memFiles) Delete(_ context.Context, bucket, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, bucket+"/"+fileID)
	return nil
}

func (m *memFiles) FileURL(bucket, fileID string) string {
	return storage.ViewURL("", bucket, fileID, testProject)
}

func (m *memFiles) Open(_ context.Context, bucket, fileID string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[bucket+"/"+fileID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: m.types[bucket+"/"+fileID],
		Size:        int64(len(data)),
	}, nil
}

func (m *memFiles) ProjectID() string { return testProject }

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	ctx      context.Context
	db       *docstore.Memory
	stores   *store.Stores
	blog     *blog.Service
	sessions *fakeSessions
	files    *memFiles
	router   chi.Router

	// session is injected into every request when set.
	session *session.Data
}

// newTestEnv creates a complete test environment with one admin, one
// writer and one reader.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := docstore.NewMemory(store.Constraints()...)
	stores := store.New(db)
	svc := blog.NewService(stores, access.NewChecker(db, "admins"), nil, blog.Options{MinWords: 1, MaxWords: 100})

	if err := store.NewAdminStore(db, "admins").Grant(ctx, testAdmin); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	for id, role := range map[string]models.ProfileRole{
		testWriter: models.RoleWriter,
		testReader: models.RoleReader,
	} {
		if _, err := stores.Profiles.Create(ctx, &models.Profile{ID: id, Role: role, Name: id}); err != nil {
			t.Fatalf("create profile %s: %v", id, err)
		}
	}

	env := &testEnv{
		ctx:      ctx,
		db:       db,
		stores:   stores,
		blog:     svc,
		sessions: &fakeSessions{},
		files:    &memFiles{files: make(map[string][]byte), types: make(map[string]string)},
	}

	authSvc := auth.NewService(stores.Users, &fixedCodes{issued: make(map[string]bool)}, nopSender{}, "Inkwell")
	a := NewAuth(authSvc, env.sessions, svc)
	b := NewBlog(svc)
	m := NewMedia(uploads.NewService(env.files, testBucket, 1<<20), env.files, testBucket)

	r := chi.NewRouter()
	r.Post("/api/auth/otp", a.RequestCode)
	r.Post("/api/auth/otp/verify", a.VerifyCode)
	r.Post("/api/auth/totp/verify", a.VerifyTOTP)
	r.Post("/api/auth/logout", a.Logout)
	r.Get("/api/auth/me", a.Me)
	r.Post("/api/auth/totp/setup", a.BeginTOTP)
	r.Post("/api/auth/totp/enable", a.EnableTOTP)

	r.Get("/api/posts", b.Feed)
	r.Get("/api/posts/{ref}", b.PublishedPost)
	r.Get("/api/posts/{ref}/likes", b.Likes)
	r.Post("/api/posts/{ref}/likes", b.ToggleLike)
	r.Get("/api/posts/{ref}/comments", b.Comments)
	r.Post("/api/posts/{ref}/comments", b.AddComment)
	r.Put("/api/comments/{id}", b.EditComment)
	r.Delete("/api/comments/{id}", b.DeleteComment)
	r.Get("/api/categories", b.Categories)
	r.Post("/api/categories", b.CreateCategory)
	r.Put("/api/categories/{id}", b.UpdateCategory)
	r.Delete("/api/categories/{id}", b.DeleteCategory)
	r.Get("/api/profile", b.MyProfile)
	r.Post("/api/profile", b.CreateProfile)
	r.Put("/api/profile", b.UpdateProfile)
	r.Get("/api/profiles/{id}", b.Profile)
	r.Post("/api/uploads", m.Upload)
	r.Get("/api/me/posts", b.MyPosts)
	r.Post("/api/me/posts", b.CreatePost)
	r.Get("/api/me/posts/{id}", b.GetPost)
	r.Put("/api/me/posts/{id}", b.UpdateMyPost)
	r.Delete("/api/me/posts/{id}", b.DeletePost)
	r.Post("/api/me/posts/{id}/status", b.SetStatus)
	r.Get("/api/admin/stats", b.Stats)
	r.Get("/api/admin/posts", b.ModerationQueue)
	r.Put("/api/admin/posts/{id}", b.UpdatePost)
	r.Post("/api/admin/posts/{id}/approve", b.Approve)
	r.Post("/api/admin/posts/{id}/reject", b.Reject)
	r.Post("/api/admin/posts/{id}/status", b.SetStatus)
	r.Delete("/api/admin/posts/{id}", b.DeletePost)
	r.Get("/storage/buckets/{bucket}/files/{fileId}/view", m.View)
	env.router = r

	return env
}

// do sends a request as userID ("" for anonymous) with body encoded as
// JSON unless it is already a string.
func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(e.requestContext(req.Context(), userID))

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// requestContext adds the caller identity and any injected session.
func (e *testEnv) requestContext(ctx context.Context, userID string) context.Context {
	if e.session != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, e.session)
	}
	if userID != "" {
		ctx = middleware.WithUserID(ctx, userID)
	}
	return ctx
}

// decodeBody parses a JSON envelope.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

// expectStatus fails the test when the response status differs and
// returns the decoded envelope.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]any {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
	body := decodeBody(t, rec)
	wantSuccess := want < 400
	if body["success"] != wantSuccess {
		t.Fatalf("success = %v, want %v; body: %s", body["success"], wantSuccess, rec.Body.String())
	}
	if !wantSuccess {
		if msg, _ := body["error"].(string); msg == "" {
			t.Errorf("failure envelope without error message: %s", rec.Body.String())
		}
	}
	return body
}

// object returns a nested JSON object from an envelope.
func object(t *testing.T, body map[string]any, key string) map[string]any {
	t.Helper()
	obj, ok := body[key].(map[string]any)
	if !ok {
		t.Fatalf("envelope has no object %q: %v", key, body)
	}
	return obj
}

// createPost creates a post as author through the API and returns its id
// and slug.
func (e *testEnv) createPost(t *testing.T, author, title string) (id, slug string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/me/posts", author, map[string]any{
		"title":   title,
		"content": "A few words of content.",
	})
	post := object(t, expectStatus(t, rec, http.StatusCreated), "post")
	return post["id"].(string), post["slug"].(string)
}

// publish approves a post as the admin.
func (e *testEnv) publish(t *testing.T, id string) {
	t.Helper()
	expectStatus(t, e.do(t, http.MethodPost, "/api/admin/posts/"+id+"/approve", testAdmin, nil), http.StatusOK)
}
