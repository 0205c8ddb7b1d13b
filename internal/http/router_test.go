package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	config "github.com/mwantia/evtrec/internal/config/server"
	"github.com/mwantia/evtrec/pkg/db/store"
	"github.com/mwantia/evtrec/pkg/folder"
	"github.com/mwantia/evtrec/pkg/log"
	"github.com/mwantia/evtrec/pkg/registry"
	"github.com/mwantia/evtrec/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 16

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithConfig(t, config.HttpServerConfig{})
}

func newTestServerWithConfig(t *testing.T, cfg config.HttpServerConfig) *httptest.Server {
	t.Helper()

	root := t.TempDir()
	s, err := store.Open(t.Context(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(root, "registry.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg, err := registry.New(t.Context(), s, filepath.Join(root, "folders"), log.Discard())
	require.NoError(t, err)

	manager := tenant.NewManager(reg, folder.Config{
		BaseDir:        reg.BaseDir(),
		AppSubdir:      ".app",
		FilesSubdir:    "files",
		DBFilename:     "events.sqlite",
		MaxUploadBytes: testMaxUpload,
		Location:       time.UTC,
	}, log.Discard())
	t.Cleanup(func() { manager.Cleanup(t.Context()) })

	srv := httptest.NewServer(NewRouter(cfg, manager, testMaxUpload, log.Discard()))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	OK      bool               `json:"ok"`
	Error   string             `json:"error"`
	Folder  map[string]any     `json:"folder"`
	Folders []map[string]any   `json:"folders"`
	Tag     map[string]any     `json:"tag"`
	Tags    []map[string]any   `json:"tags"`
	Event   *eventBody         `json:"event"`
	Events  []eventBody        `json:"events"`
	Files   []folder.InboxFile `json:"files"`
}

type eventBody struct {
	ID          uint             `json:"id"`
	EventDate   string           `json:"event_date"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	FileCount   int64            `json:"file_count"`
	Tags        []map[string]any `json:"tags"`
	Files       []map[string]any `json:"files"`
}

func do(t *testing.T, method, target string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, target, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func doJSON(t *testing.T, method, target string, payload map[string]any) (int, envelope) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return do(t, method, target, bytes.NewReader(data), "application/json")
}

func doForm(t *testing.T, method, target string, values url.Values) (int, envelope) {
	t.Helper()
	return do(t, method, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func createFolder(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return fmt.Sprintf("%s/api/folders/%v", srv.URL, env.Folder["id"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestFolders(t *testing.T) {
	srv := newTestServer(t)

	status, env := doForm(t, http.MethodPost, srv.URL+"/api/folders", url.Values{"name": {"Client A"}})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.OK)
	assert.Equal(t, "client-a", env.Folder["slug"])

	_, env = doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{"name": "Client A"})
	assert.Equal(t, "client-a-2", env.Folder["slug"])

	status, env = do(t, http.MethodGet, srv.URL+"/api/folders", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.Folders, 2)
	assert.Equal(t, "client-a-2", env.Folders[0]["slug"])

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/folders", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.OK)
	assert.NotEmpty(t, env.Error)
}

func TestRemoveFolder(t *testing.T) {
	srv := newTestServer(t)
	base := createFolder(t, srv, "Client A")

	status, env := do(t, http.MethodDelete, base, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.OK)

	// Idempotent
	status, _ = do(t, http.MethodDelete, base, nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, http.MethodGet, base+"/events", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.OK)

	status, _ = do(t, http.MethodDelete, srv.URL+"/api/folders/0", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodGet, srv.URL+"/api/folders/abc/tags", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTags(t *testing.T) {
	srv := newTestServer(t)
	base := createFolder(t, srv, "Client A")

	_, env := doJSON(t, http.MethodPost, base+"/tags", map[string]any{"name": "Travel"})
	firstID := env.Tag["id"]
	_, env = doJSON(t, http.MethodPost, base+"/tags", map[string]any{"name": "  TRAVEL "})
	assert.Equal(t, firstID, env.Tag["id"])
	assert.Equal(t, "Travel", env.Tag["name"])

	status, env := do(t, http.MethodGet, base+"/tags", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env.Tags, 1)
}

func TestEvents(t *testing.T) {
	srv := newTestServer(t)
	base := createFolder(t, srv, "Client A")

	status, env := doForm(t, http.MethodPost, base+"/events", url.Values{
		"name":       {"Flight"},
		"event_date": {"2024-03-01 08:00"},
		"tags_csv":   {"travel, work,,"},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	require.NotNil(t, env.Event)
	eventURL := fmt.Sprintf("%s/events/%d", base, env.Event.ID)
	assert.Len(t, env.Event.Tags, 2)

	_, env = doJSON(t, http.MethodPost, base+"/events", map[string]any{"name": "Dentist", "event_date": "2024-01-01"})
	require.NotNil(t, env.Event)

	status, env = doJSON(t, http.MethodPut, eventURL, map[string]any{"description": "to Lisbon"})
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, "Flight", env.Event.Name)
	assert.Equal(t, "to Lisbon", env.Event.Description)
	assert.Len(t, env.Event.Tags, 2, "absent tags_csv keeps tags")

	_, env = doJSON(t, http.MethodPut, eventURL, map[string]any{"tags_csv": "family"})
	require.Len(t, env.Event.Tags, 1)
	assert.Equal(t, "family", env.Event.Tags[0]["name"])

	status, env = do(t, http.MethodGet, base+"/events?q=lisbon", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.Events, 1)
	assert.Equal(t, "Flight", env.Events[0].Name)

	_, tagsEnv := do(t, http.MethodGet, base+"/tags", nil, "")
	var familyID any
	for _, tag := range tagsEnv.Tags {
		if tag["name_norm"] == "family" {
			familyID = tag["id"]
		}
	}
	require.NotNil(t, familyID)

	_, env = do(t, http.MethodGet, fmt.Sprintf("%s/events?tag_id=%v", base, familyID), nil, "")
	assert.Len(t, env.Events, 1)

	status, _ = do(t, http.MethodGet, base+"/events?tag_id=x", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = do(t, http.MethodGet, base+"/events/999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.OK)

	status, _ = doJSON(t, http.MethodPost, base+"/events", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLinkFile(t *testing.T) {
	srv := newTestServer(t)
	base := createFolder(t, srv, "Client A")

	_, env := doJSON(t, http.MethodPost, base+"/events", map[string]any{"name": "Receipt"})
	eventURL := fmt.Sprintf("%s/events/%d", base, env.Event.ID)

	link := map[string]any{"file_url": "https://example.com/r.pdf", "display_name": "r.pdf"}
	status, env := doJSON(t, http.MethodPost, eventURL+"/files", link)
	require.Equal(t, http.StatusOK, status, env.Error)
	_, env = doJSON(t, http.MethodPost, eventURL+"/files", link)
	require.Len(t, env.Event.Files, 1)

	fileID := env.Event.Files[0]["id"]
	status, _ = do(t, http.MethodDelete, fmt.Sprintf("%s/event-files/%v", base, fileID), nil, "")
	assert.Equal(t, http.StatusOK, status)

	_, env = do(t, http.MethodGet, eventURL, nil, "")
	assert.Empty(t, env.Event.Files)

	status, _ = doJSON(t, http.MethodPost, base+"/events/999/files", link)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestInboxUploadAndDownload(t *testing.T) {
	srv := newTestServer(t)
	base := createFolder(t, srv, "Client A")

	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	for _, file := range []struct{ name, content string }{
		{"report.pdf", "first"},
		{"report.pdf", "second"},
		{"big.bin", strings.Repeat("x", testMaxUpload+1)},
		{"my notes.txt", "hello"},
	} {
		part, err := mp.CreateFormFile("files", file.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, mp.WriteField("ignored", "value"))
	require.NoError(t, mp.Close())

	status, env := do(t, http.MethodPost, base+"/inbox", &body, mp.FormDataContentType())
	require.Equal(t, http.StatusOK, status, env.Error)
	require.Len(t, env.Files, 3)
	assert.Equal(t, "report.pdf", env.Files[0].DisplayName)
	assert.Equal(t, "report-1.pdf", env.Files[1].DisplayName)
	assert.Equal(t, "files/my%20notes.txt", env.Files[2].FileURL)

	status, env = do(t, http.MethodGet, base+"/inbox", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, env.Files, 3)

	resp, err := http.Get(base + "/files/my%20notes.txt")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "5", resp.Header.Get("Content-Length"))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="my notes.txt"`)

	status, env = do(t, http.MethodGet, base+"/files/missing.txt", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.OK)

	status, _ = do(t, http.MethodPost, base+"/inbox", strings.NewReader("name=x"), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInboxUpload_requestTooLarge(t *testing.T) {
	srv := newTestServerWithConfig(t, config.HttpServerConfig{MaxRequestBytes: 2048})
	base := createFolder(t, srv, "Client A")

	// Every part fits the per-file limit, only the whole body is too large.
	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	for i := 0; i < 64; i++ {
		part, err := mp.CreateFormFile("files", fmt.Sprintf("part-%d.txt", i))
		require.NoError(t, err)
		_, err = part.Write([]byte("small"))
		require.NoError(t, err)
	}
	require.NoError(t, mp.Close())
	require.Greater(t, body.Len(), 2048)

	status, env := do(t, http.MethodPost, base+"/inbox", &body, mp.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.False(t, env.OK)
	assert.Contains(t, env.Error, "2048")

	status, env = do(t, http.MethodGet, base+"/inbox", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, env.Files, "nothing is saved from a rejected request")
}
