package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filesearch/config"
	"filesearch/flow"
	"filesearch/genai"
)

// stubService answers every remote call successfully without leaving the
// process. Operations complete on the first status check.
type stubService struct {
	mu       sync.Mutex
	storeSeq int
	stores   []*genai.Store
	answer   string
}

func (s *stubService) CreateStore(ctx context.Context, displayName string) (*genai.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeSeq++
	return &genai.Store{Name: fmt.Sprintf("fileSearchStores/s-%d", s.storeSeq), DisplayName: displayName}, nil
}

func (s *stubService) GetStore(ctx context.Context, name string) (*genai.Store, error) {
	if strings.Contains(name, "missing") {
		return nil, &genai.APIError{StatusCode: 404, Status: "NOT_FOUND", Message: "no such store"}
	}
	return &genai.Store{Name: name}, nil
}

func (s *stubService) ListStores(ctx context.Context) ([]*genai.Store, error) {
	return s.stores, nil
}

func (s *stubService) DeleteStore(ctx context.Context, name string, force bool) error {
	return nil
}

func (s *stubService) UploadFile(ctx context.Context, r io.Reader, displayName string) (*genai.File, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &genai.File{Name: "files/f-1"}, nil
}

func (s *stubService) ImportFile(ctx context.Context, storeName, fileName string, meta []genai.CustomMetadata) (*genai.Operation, error) {
	return &genai.Operation{Name: "operations/import", Done: true}, nil
}

func (s *stubService) UploadToStore(ctx context.Context, r io.Reader, storeName string, cfg *genai.UploadConfig) (*genai.Operation, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &genai.Operation{Name: "operations/upload", Done: true}, nil
}

func (s *stubService) GetOperation(ctx context.Context, name string) (*genai.Operation, error) {
	return &genai.Operation{Name: name, Done: true}, nil
}

func (s *stubService) GenerateContent(ctx context.Context, model string, req *genai.GenerateContentRequest) (*genai.GenerateContentResponse, error) {
	answer := s.answer
	if answer == "" {
		answer = "stub answer"
	}
	return &genai.GenerateContentResponse{Candidates: []genai.Candidate{{
		Content:           &genai.Content{Role: "model", Parts: []genai.Part{{Text: answer}}},
		GroundingMetadata: json.RawMessage(`{"groundingChunks":[]}`),
	}}}, nil
}

func newTestServer(t *testing.T, stub flow.Service) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Poll.IntervalMS = 1
	cfg.SamplesDir = t.TempDir()
	return New(cfg, func(o *Options) {
		o.ServiceFactory = func(apiKey string) flow.Service { return stub }
	})
}

func doJSON(t *testing.T, s *Server, method, path string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := s.App().Test(req, 5000)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func newSession(t *testing.T, s *Server) string {
	t.Helper()
	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, status)
	id, _ := body["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func setKey(t *testing.T, s *Server, id string) {
	t.Helper()
	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/key",
		SetKeyRequest{APIKey: "test-key"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "✅ API key set for this session.", body["message"])
}

func TestSetKey_Validation(t *testing.T) {
	s := newTestServer(t, &stubService{})
	id := newSession(t, s)

	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/key",
		SetKeyRequest{APIKey: "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "❌ API key required. Paste your Gemini key and click Set key.", body["message"])

	setKey(t, s, id)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t, &stubService{})

	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/nope/key",
		SetKeyRequest{APIKey: "k"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "❌ Unknown or expired session.", body["message"])
}

func TestBuildFromSamples_RequiresKey(t *testing.T) {
	s := newTestServer(t, &stubService{})
	id := newSession(t, s)

	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/samples",
		SamplesRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "❌ Set your API key first.", body["message"])
}

func TestBuildFromSamples_ReturnsTrackableJob(t *testing.T) {
	s := newTestServer(t, &stubService{})
	id := newSession(t, s)
	setKey(t, s, id)

	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/samples",
		SamplesRequest{DisplayName: "classics"})
	require.Equal(t, http.StatusOK, status)
	jobID, _ := body["job_id"].(string)
	require.NotEmpty(t, jobID)

	job, ok := s.jobs.Get(jobID)
	require.True(t, ok)
	require.NoError(t, awaitDone(t, job))

	history, _, _, _, cancel := job.subscribe()
	defer cancel()
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.True(t, last.Final)
	assert.Equal(t, 100.0, last.Percent)
	assert.Equal(t, "⚠️ Store created. No classics found to index.", last.Line)
}

func TestStoreLifecycleEndpoints(t *testing.T) {
	stub := &stubService{stores: []*genai.Store{{Name: "fileSearchStores/a", DisplayName: "alpha"}}}
	s := newTestServer(t, stub)
	id := newSession(t, s)
	setKey(t, s, id)

	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/empty",
		EmptyStoreRequest{})
	require.Equal(t, http.StatusOK, status)
	created, _ := body["store_name"].(string)
	assert.Equal(t, "fileSearchStores/s-1", created)

	status, body = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/bind",
		BindStoreRequest{StoreName: "fileSearchStores/a"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "✅ Using existing store: fileSearchStores/a", body["message"])

	status, body = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/bind",
		BindStoreRequest{StoreName: "fileSearchStores/missing"})
	assert.Equal(t, http.StatusNotFound, status)
	msg, _ := body["message"].(string)
	assert.Contains(t, msg, "could not get store")

	status, body = doJSON(t, s, http.MethodGet, "/api/v1/sessions/"+id+"/stores", nil)
	require.Equal(t, http.StatusOK, status)
	stores, _ := body["stores"].([]any)
	require.Len(t, stores, 1)

	status, body = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/delete",
		DeleteStoreRequest{StoreName: "fileSearchStores/a"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "🗑️ Deleted: fileSearchStores/a", body["message"])
}

func uploadRequest(t *testing.T, id string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if withFile {
		part, err := w.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("some notes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("display_name", "Notes"))
	require.NoError(t, w.WriteField("max_tokens", "200"))
	require.NoError(t, w.WriteField("overlap_tokens", "20"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload_RequiresFile(t *testing.T) {
	s := newTestServer(t, &stubService{})
	id := newSession(t, s)
	setKey(t, s, id)
	doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/empty", EmptyStoreRequest{})

	res, err := s.App().Test(uploadRequest(t, id, false), 5000)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "⚠️ Choose a file to upload.", body["message"])
}

func TestUpload_IndexesIntoActiveStore(t *testing.T) {
	s := newTestServer(t, &stubService{})
	id := newSession(t, s)
	setKey(t, s, id)
	doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/empty", EmptyStoreRequest{})

	res, err := s.App().Test(uploadRequest(t, id, true), 5000)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body jobResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "fileSearchStores/s-1", body.StoreName)

	job, ok := s.jobs.Get(body.JobID)
	require.True(t, ok)
	done, jerr := job.state()
	assert.True(t, done, "upload jobs finish within the request")
	assert.NoError(t, jerr)

	history, _, _, _, cancel := job.subscribe()
	defer cancel()
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, "✅ File indexed into fileSearchStores/s-1", last.Line)
	assert.Equal(t, "Indexed.", last.Summary)
}

func TestAsk_PreconditionsAndSuccess(t *testing.T) {
	s := newTestServer(t, &stubService{answer: "Elizabeth Bennet."})
	id := newSession(t, s)

	status, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/ask",
		AskRequest{Question: "Who?"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "❌ Set your API key first.", body["note"])

	setKey(t, s, id)
	status, body = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/ask",
		AskRequest{Question: "Who?"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "⚠️ Create or select a store first.", body["note"])

	doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/empty", EmptyStoreRequest{})

	status, body = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/ask",
		AskRequest{Question: "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "⚠️ Type a question.", body["note"])
	history, _ := body["history"].([]any)
	assert.Empty(t, history, "failed asks leave the history unchanged")

	status, body = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/ask",
		AskRequest{Question: "Who is the protagonist?"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Elizabeth Bennet.", body["answer"])
	assert.Equal(t, "✅ Done.", body["note"])
	history, _ = body["history"].([]any)
	assert.Len(t, history, 2)
}

func TestClearHistory(t *testing.T) {
	s := newTestServer(t, &stubService{})
	id := newSession(t, s)
	setKey(t, s, id)
	doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/stores/empty", EmptyStoreRequest{})
	doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/ask", AskRequest{Question: "Q1"})

	status, _ := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/clear", nil)
	require.Equal(t, http.StatusOK, status)

	_, body := doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+id+"/ask", AskRequest{Question: "Q2"})
	history, _ := body["history"].([]any)
	assert.Len(t, history, 2, "only the post-clear exchange remains")
}

func TestIndexPageServed(t *testing.T) {
	s := newTestServer(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res, err := s.App().Test(req, 5000)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
	page, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "File Search")
}
