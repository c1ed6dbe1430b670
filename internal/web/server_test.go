package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"linkvault/internal/ai"
	"linkvault/internal/domain"
	"linkvault/internal/pipeline"
	"linkvault/internal/scraper"
	"linkvault/internal/session"
	"linkvault/internal/storage"
)

type memRepo struct {
	mu     sync.Mutex
	users  []domain.User
	links  []domain.SavedLink
	nextID int64
}

func (m *memRepo) CreateUser(ctx context.Context, name, phone, hash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return nil, storage.ErrPhoneTaken
		}
	}
	m.nextID++
	user := domain.User{ID: m.nextID, Name: name, Phone: phone, PasswordHash: hash, CreatedAt: time.Now()}
	m.users = append(m.users, user)
	return &user, nil
}

func (m *memRepo) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			cp := u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *memRepo) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *memRepo) GetUserByChatID(ctx context.Context, chatID string) (*domain.User, error) {
	return nil, storage.ErrUserNotFound
}

func (m *memRepo) LinkChatID(ctx context.Context, userID int64, chatID string) error { return nil }

func (m *memRepo) SaveLink(ctx context.Context, link *domain.SavedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.UserID == link.UserID && l.URL == link.URL {
			return storage.ErrDuplicateLink
		}
	}
	m.nextID++
	link.ID = m.nextID
	link.SavedAt = time.Now()
	m.links = append(m.links, *link)
	return nil
}

func (m *memRepo) LinkExists(ctx context.Context, userID int64, canonicalURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.UserID == userID && l.URL == canonicalURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Search(ctx context.Context, userID int64, query, category string) ([]domain.SavedLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SavedLink
	for _, l := range m.links {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memRepo) RandomLink(ctx context.Context, userID int64) (*domain.SavedLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.UserID == userID {
			cp := l
			return &cp, nil
		}
	}
	return nil, storage.ErrLinkNotFound
}

func (m *memRepo) DeleteLink(ctx context.Context, userID, linkID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.links {
		if l.UserID == userID && l.ID == linkID {
			m.links = append(m.links[:i], m.links[i+1:]...)
			return nil
		}
	}
	return storage.ErrLinkNotFound
}

func (m *memRepo) Close() error { return nil }

type stubScraper struct{ text string }

func (s *stubScraper) Scrape(ctx context.Context, url string, platform domain.Platform) scraper.Result {
	return scraper.Result{Text: s.text}
}

type stubCategorizer struct{}

func (stubCategorizer) Categorize(ctx context.Context, text string) ai.Result {
	return ai.Result{Category: domain.CategoryTech, Summary: "A tech article.", Tags: "tech"}
}

type memPending struct {
	mu    sync.Mutex
	items map[string]*domain.PendingLink
}

func (m *memPending) Get(ctx context.Context, key string) (*domain.PendingLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[key]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, session.ErrNotPending
}

func (m *memPending) Put(ctx context.Context, key string, p *domain.PendingLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.items[key] = &cp
	return nil
}

func (m *memPending) Resolve(ctx context.Context, key string) (*domain.PendingLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[key]
	if !ok {
		return nil, session.ErrNotPending
	}
	delete(m.items, key)
	return p, nil
}

func (m *memPending) IncrementRetry(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[key]
	if !ok {
		return session.ErrNotPending
	}
	p.Retries++
	return nil
}

func (m *memPending) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memPending) Close() error { return nil }

type webFixture struct {
	repo   *memRepo
	server *httptest.Server
	client *http.Client
}

func setupServer(t *testing.T) *webFixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := &memRepo{}
	pipe := pipeline.New(repo, &stubScraper{text: "A long article about new laptop hardware"},
		stubCategorizer{}, &memPending{items: map[string]*domain.PendingLink{}}, log)
	s := NewServer(":0", "test-secret-0123456789", repo, pipe, log)

	srv := httptest.NewServer(s.http.Handler)
	t.Cleanup(srv.Close)

	jar := newCookieJar()
	return &webFixture{
		repo:   repo,
		server: srv,
		client: &http.Client{Jar: jar},
	}
}

func (f *webFixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := f.client.Post(f.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (f *webFixture) register(t *testing.T) {
	t.Helper()
	resp := f.postJSON(t, "/register", registerRequest{Name: "Asha", Phone: "+15551234567", Password: "hunter22"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	f := setupServer(t)
	resp, err := f.client.Get(f.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterAndLogin(t *testing.T) {
	f := setupServer(t)
	f.register(t)

	// The stored hash must verify against the original password.
	user, err := f.repo.GetUserByPhone(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))

	// Duplicate phone is a conflict.
	resp := f.postJSON(t, "/register", registerRequest{Name: "Other", Phone: "+15551234567", Password: "hunter22"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Wrong password is rejected without detail.
	resp = f.postJSON(t, "/login", loginRequest{Phone: "+15551234567", Password: "wrong"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.postJSON(t, "/login", loginRequest{Phone: "+15551234567", Password: "hunter22"})
	body := decodeJSON[userResponse](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Asha", body.Name)
}

func TestRegister_Validation(t *testing.T) {
	f := setupServer(t)

	resp := f.postJSON(t, "/register", registerRequest{Name: "", Phone: "+1555", Password: "hunter22"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.postJSON(t, "/register", registerRequest{Name: "A", Phone: "+1555", Password: "abc"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Without the "+" prefix the number could never match a WhatsApp
	// sender identity.
	resp = f.postJSON(t, "/register", registerRequest{Name: "A", Phone: "15551234567", Password: "hunter22"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIRequiresAuth(t *testing.T) {
	f := setupServer(t)

	resp, err := f.client.Get(f.server.URL + "/api/links")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatSavesLink(t *testing.T) {
	f := setupServer(t)
	f.register(t)

	resp := f.postJSON(t, "/api/chat", chatRequest{Message: "save this https://example.com/laptops"})
	reply := decodeJSON[pipeline.Reply](t, resp)

	assert.True(t, reply.Saved)
	assert.Equal(t, domain.CategoryTech, reply.Category)
	assert.Contains(t, reply.Text, "Saved to your *Tech* collection")
	require.Len(t, f.repo.links, 1)
	assert.Equal(t, "https://example.com/laptops", f.repo.links[0].URL)
}

func TestSearchAndDelete(t *testing.T) {
	f := setupServer(t)
	f.register(t)

	resp := f.postJSON(t, "/api/chat", chatRequest{Message: "https://example.com/laptops"})
	resp.Body.Close()

	listResp, err := f.client.Get(f.server.URL + "/api/links?q=tech")
	require.NoError(t, err)
	list := decodeJSON[struct {
		Links []domain.SavedLink `json:"links"`
		Count int                `json:"count"`
	}](t, listResp)
	require.Equal(t, 1, list.Count)
	linkID := list.Links[0].ID

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/links/%d", f.server.URL, linkID), nil)
	require.NoError(t, err)
	delResp, err := f.client.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
	assert.Empty(t, f.repo.links)

	// Deleting again is a 404.
	again, err := f.client.Do(req)
	require.NoError(t, err)
	again.Body.Close()
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestRandomLink(t *testing.T) {
	f := setupServer(t)
	f.register(t)

	resp, err := f.client.Get(f.server.URL + "/api/links/random")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "empty library yields 404")

	saveResp := f.postJSON(t, "/api/chat", chatRequest{Message: "https://example.com/laptops"})
	saveResp.Body.Close()

	resp, err = f.client.Get(f.server.URL + "/api/links/random")
	require.NoError(t, err)
	link := decodeJSON[domain.SavedLink](t, resp)
	assert.Equal(t, "https://example.com/laptops", link.URL)
}

func TestWhatsAppWebhook(t *testing.T) {
	f := setupServer(t)
	f.register(t)

	form := url.Values{
		"From": {"whatsapp:+15551234567"},
		"Body": {"https://example.com/laptops"},
	}
	resp, err := f.client.PostForm(f.server.URL+"/webhook/whatsapp", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "xml")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<Response>")
	assert.Contains(t, string(body), "Saved to your *Tech* collection")
	require.Len(t, f.repo.links, 1)
}

func TestWhatsAppWebhook_UnknownNumber(t *testing.T) {
	f := setupServer(t)

	form := url.Values{
		"From": {"whatsapp:+19998887777"},
		"Body": {"https://example.com/laptops"},
	}
	resp, err := f.client.PostForm(f.server.URL+"/webhook/whatsapp", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "isn't registered yet")
	assert.Empty(t, f.repo.links)
}

// cookieJar is a minimal jar: all cookies go back to every request, which
// is fine against a single test server.
type cookieJar struct {
	mu      sync.Mutex
	cookies []*http.Cookie
}

func newCookieJar() *cookieJar { return &cookieJar{} }

func (j *cookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = append(j.cookies, cookies...)
}

func (j *cookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cookies
}
