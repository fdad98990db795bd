package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bazaar-console/internal/chat"
	"github.com/angelmondragon/bazaar-console/internal/console"
	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/internal/users"
	"github.com/angelmondragon/bazaar-console/pkg/config"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

const usersJSON = `[{"id":1,"userName":"ada","firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","role":"Admin"},
{"id":2,"userName":"grace","firstName":"Grace","lastName":"Hopper","email":"grace@example.com","role":"Saler"}]`

type fakeBackend struct {
	mu          sync.Mutex
	productForm map[string]string
	photo       []byte
	deleted     []string
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/User", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, usersJSON)
	})
	mux.HandleFunc("GET /api/User/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			writeBody(w, http.StatusNotFound, `{"message":"User not found"}`)
			return
		}
		writeBody(w, http.StatusOK, `{"id":1,"userName":"ada","firstName":"Ada","lastName":"Lovelace","role":"Admin"}`)
	})
	mux.HandleFunc("POST /api/User", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var in map[string]any
		_ = json.Unmarshal(body, &in)
		in["id"] = 3
		out, _ := json.Marshal(in)
		writeBody(w, http.StatusCreated, string(out))
	})
	mux.HandleFunc("DELETE /api/User/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.deleted = append(b.deleted, r.PathValue("id"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/Product", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusOK, `[{"id":5,"name":"Saw","category":"Tools","stock":1,"price":9.5}]`)
	})
	mux.HandleFunc("POST /api/Product/add", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeBody(w, http.StatusBadRequest, `{"message":"bad form"}`)
			return
		}
		b.mu.Lock()
		b.productForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			b.productForm[k] = v[0]
		}
		if f, _, err := r.FormFile("photo"); err == nil {
			b.photo, _ = io.ReadAll(f)
		}
		b.mu.Unlock()
		writeBody(w, http.StatusOK, `{"id":6,"name":"Rake","category":"Garden","stock":4,"price":12.25}`)
	})
	mux.HandleFunc("GET /api/Product/category-distribution", func(w http.ResponseWriter, _ *http.Request) {
		writeBody(w, http.StatusInternalServerError, `{"message":"report failed"}`)
	})
	return mux
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newTestWorkspace(t *testing.T, b *fakeBackend) *console.Workspace {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	session := chat.NewSession(chat.CompleterFunc(func(_ context.Context, p chat.Prompt) (string, error) {
		return "re: " + p.Text, nil
	}))
	return console.NewWorkspace(gateway.NewClient(srv.URL+"/api"), session, nil)
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		Console: config.ConsoleConfig{MaxAttachmentMB: 1, MaxUploadMB: 2},
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestUserListSearch(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	handler := ListCollection[users.User, users.Card](ws.Users, logger.Nop())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users?q=hopper", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var render struct {
		Status  string `json:"status"`
		Total   int    `json:"total"`
		Matched int    `json:"matched"`
		Items   []struct {
			FullName string `json:"fullName"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &render))
	assert.Equal(t, "success", render.Status)
	assert.Equal(t, 2, render.Total)
	assert.Equal(t, 1, render.Matched)
	require.Len(t, render.Items, 1)
	assert.Equal(t, "Grace Hopper", render.Items[0].FullName)
}

func TestUserListSearchKeepsWhitespace(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	handler := ListCollection[users.User, users.Card](ws.Users, logger.Nop())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users?q=ghopper%20", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var render struct {
		Query   string `json:"query"`
		Matched int    `json:"matched"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &render))
	assert.Equal(t, "ghopper ", render.Query)
	assert.Equal(t, 0, render.Matched)
}

func TestUserListRejectsBadRefresh(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	ListCollection[users.User, users.Card](ws.Users, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users?refresh=maybe", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestUserDetail(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	handler := GetItem[users.User, users.Card](ws.Users, "userId", logger.Nop())

	rec := httptest.NewRecorder()
	handler(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil), "userId", "1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"Ada Lovelace"`)

	rec = httptest.NewRecorder()
	handler(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/9", nil), "userId", "9"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Code)

	rec = httptest.NewRecorder()
	handler(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/abc", nil), "userId", "abc"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserDeleteConfirmation(t *testing.T) {
	b := &fakeBackend{}
	ws := newTestWorkspace(t, b)
	_, err := ws.Users.Open(context.Background())
	require.NoError(t, err)
	handler := DeleteItem[users.User, users.Card](ws.Users, "userId", logger.Nop())

	del := func(query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/2"+query, nil)
		handler(rec, withURLParam(req, "userId", "2"))
		return rec
	}

	rec := del("")
	require.Equal(t, http.StatusPreconditionRequired, rec.Code)
	assert.Equal(t, "CONFIRMATION_REQUIRED", decodeEnvelope(t, rec).Error.Code)

	rec = del("?confirm=false")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":false`)
	assert.Empty(t, b.deleted)

	rec = del("?confirm=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"applied":true`)
	assert.Equal(t, []string{"2"}, b.deleted)
	assert.Equal(t, 1, ws.Users.Render().Total)
}

func TestUserCreate(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	_, err := ws.Users.Open(context.Background())
	require.NoError(t, err)
	handler := UserCreate(ws.Users, logger.Nop())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"userName":"kat","firstName":"Katherine","lastName":"Johnson","email":"not-an-email"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "must be a valid email", env.Error.Details["email"])

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"userName":"kat","firstName":"Katherine","lastName":"Johnson","email":"kat@example.com","role":"User"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"Katherine Johnson"`)
	assert.Equal(t, 3, ws.Users.Render().Total)
}

func TestProductCreateMultipart(t *testing.T) {
	b := &fakeBackend{}
	ws := newTestWorkspace(t, b)
	handler := ProductCreate(testConfig(), ws.Products, logger.Nop())

	body, contentType := multipartBody(t, map[string]string{
		"name": "Rake", "category": "Garden", "stock": "4", "price": "12.25",
	}, "photo", "rake.png", []byte("\x89PNG\r\n\x1a\n0000"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Rake"`)
	assert.Equal(t, "Rake", b.productForm["name"])
	assert.Equal(t, "12.25", b.productForm["price"])
	assert.NotEmpty(t, b.photo)
}

func TestProductCreateRejectsBadNumbers(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	handler := ProductCreate(testConfig(), ws.Products, logger.Nop())

	body, contentType := multipartBody(t, map[string]string{
		"name": "Rake", "category": "Garden", "stock": "four", "price": "-1",
	}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	handler(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "must be a whole number", env.Error.Details["stock"])
}

func TestCategoryDistributionRendersErrorInline(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	CategoryDistribution(ws.Distribution, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/category-distribution", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
	assert.Contains(t, rec.Body.String(), `"code":"DEPENDENCY_ERROR"`)
}

func TestChatSendJSONAndMultipart(t *testing.T) {
	session := chat.NewSession(chat.CompleterFunc(func(_ context.Context, p chat.Prompt) (string, error) {
		return "re: " + p.Text, nil
	}))
	handler := ChatSend(testConfig(), session, logger.Nop())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"text":"hello"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text":"re: hello"`)

	body, contentType := multipartBody(t, map[string]string{"text": "see file"}, "attachment", "notes.txt", []byte("notes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	handler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, session.View().Messages, 4)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"text":"   "}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, session.View().Messages, 4)
}

func TestChatSendSurfacesAssistantFailure(t *testing.T) {
	session := chat.NewSession(chat.Unavailable("no api key configured"))
	rec := httptest.NewRecorder()
	ChatSend(testConfig(), session, logger.Nop())(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", strings.NewReader(`{"text":"hi"}`)))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "CHAT_ERROR", decodeEnvelope(t, rec).Error.Code)

	rec = httptest.NewRecorder()
	ChatView(session)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil))
	assert.Contains(t, rec.Body.String(), `"text":"hi"`)
}

func TestDashboardRendersFailingPanels(t *testing.T) {
	ws := newTestWorkspace(t, &fakeBackend{})
	rec := httptest.NewRecorder()
	Dashboard(ws, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var render struct {
		Users        struct{ Status string } `json:"users"`
		Distribution struct{ Status string } `json:"distribution"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &render))
	assert.Equal(t, "success", render.Users.Status)
	assert.Equal(t, "error", render.Distribution.Status)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := testConfig()

	rec := httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), pingFunc(func(context.Context) error { return nil }))(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }))(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", decodeEnvelope(t, rec).Error.Code)

	rec = httptest.NewRecorder()
	HealthLive(cfg)(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
