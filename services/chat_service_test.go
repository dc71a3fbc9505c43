package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/appconfig"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/llm"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/memory"
	"github.com/aws-samples/generative-ai-on-aws-architecture-patterns/retriever"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	sessions  map[string][]memory.Turn
	loadErr   error
	appendErr error
}

func newStubStore() *stubStore {
	return &stubStore{sessions: make(map[string][]memory.Turn)}
}

func (s *stubStore) Load(_ context.Context, sessionID string) ([]memory.Turn, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.sessions[sessionID], nil
}

func (s *stubStore) Append(_ context.Context, sessionID string, turn memory.Turn) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}

type stubRetriever struct {
	snippets []retriever.Snippet
	err      error
}

func (r *stubRetriever) Retrieve(_ context.Context, _ string, _ int) ([]retriever.Snippet, error) {
	return r.snippets, r.err
}

type fixedModel struct {
	name     string
	response string
	err      error
	calls    int
}

func (m *fixedModel) GenerateInference(_ context.Context, _ []llm.Message, callback func(chunk string) error, _ ...llm.LLMOption) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return callback(m.response)
}

func (m *fixedModel) GetModel() string { return m.name }

type serviceDeps struct {
	store   *stubStore
	docs    *stubRetriever
	bedrock *fixedModel
	other   *fixedModel
}

func newTestRouter(t *testing.T, deps serviceDeps) http.Handler {
	t.Helper()

	ccfgg := &appconfig.AppConfig{
		Region:        "us-east-1",
		KendraIndexID: "idx",
		UseBedrock:    true,
	}
	ccfgg.SetDefaults()

	var bedrock, other llm.LLMClient
	if deps.bedrock != nil {
		bedrock = deps.bedrock
	}
	if deps.other != nil {
		other = deps.other
	}

	return NewRouter(ccfgg, ProvideChatService(ccfgg, deps.store, deps.docs, bedrock, other))
}

func postQuery(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/backendapp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleQuerySuccess(t *testing.T) {
	store := newStubStore()
	deps := serviceDeps{
		store: store,
		docs: &stubRetriever{snippets: []retriever.Snippet{
			{Source: "s3://docs/refunds.pdf", Excerpt: "Refunds within 30 days.", Rank: 1},
		}},
		bedrock: &fixedModel{name: "bedrock", response: "You can request a refund within 30 days."},
	}
	router := newTestRouter(t, deps)

	w := postQuery(t, router, `{"query": "What is the refund policy?", "uuid": "s1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"You can request a refund within 30 days."`, strings.TrimSpace(w.Body.String()))
	require.Len(t, store.sessions["s1"], 1)
}

func TestHandleQueryBadRequest(t *testing.T) {
	router := newTestRouter(t, serviceDeps{
		store:   newStubStore(),
		docs:    &stubRetriever{},
		bedrock: &fixedModel{name: "bedrock", response: "unused"},
	})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query": `},
		{"missing query", `{"uuid": "s1"}`},
		{"blank query", `{"query": "   ", "uuid": "s1"}`},
		{"missing uuid", `{"query": "hello"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postQuery(t, router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleQueryBackendSelection(t *testing.T) {
	bedrock := &fixedModel{name: "bedrock", response: "from bedrock"}
	other := &fixedModel{name: "sagemaker", response: "from sagemaker"}
	router := newTestRouter(t, serviceDeps{
		store:   newStubStore(),
		docs:    &stubRetriever{},
		bedrock: bedrock,
		other:   other,
	})

	// configured default is Bedrock
	w := postQuery(t, router, `{"query": "hello", "uuid": "s1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "from bedrock")

	// request flag overrides the default
	w = postQuery(t, router, `{"query": "hello", "uuid": "s2", "USE_BEDROCK": false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "from sagemaker")
}

func TestHandleQueryUnconfiguredBackend(t *testing.T) {
	router := newTestRouter(t, serviceDeps{
		store:   newStubStore(),
		docs:    &stubRetriever{},
		bedrock: &fixedModel{name: "bedrock", response: "unused"},
	})

	w := postQuery(t, router, `{"query": "hello", "uuid": "s1", "USE_BEDROCK": false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleQueryErrorMapping(t *testing.T) {
	t.Run("store unavailable", func(t *testing.T) {
		store := newStubStore()
		store.loadErr = memory.ErrStoreUnavailable
		router := newTestRouter(t, serviceDeps{
			store:   store,
			docs:    &stubRetriever{},
			bedrock: &fixedModel{name: "bedrock", response: "unused"},
		})

		w := postQuery(t, router, `{"query": "hello", "uuid": "s1"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("retrieval unavailable", func(t *testing.T) {
		router := newTestRouter(t, serviceDeps{
			store:   newStubStore(),
			docs:    &stubRetriever{err: retriever.ErrRetrievalUnavailable},
			bedrock: &fixedModel{name: "bedrock", response: "unused"},
		})

		w := postQuery(t, router, `{"query": "hello", "uuid": "s1"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("generation unavailable", func(t *testing.T) {
		router := newTestRouter(t, serviceDeps{
			store:   newStubStore(),
			docs:    &stubRetriever{},
			bedrock: &fixedModel{name: "bedrock", err: llm.ErrGenerationUnavailable},
		})

		w := postQuery(t, router, `{"query": "hello", "uuid": "s1"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestHandleQueryAppendFailureStillAnswers(t *testing.T) {
	store := newStubStore()
	store.appendErr = memory.ErrStoreUnavailable
	router := newTestRouter(t, serviceDeps{
		store:   store,
		docs:    &stubRetriever{},
		bedrock: &fixedModel{name: "bedrock", response: "The answer."},
	})

	w := postQuery(t, router, `{"query": "hello", "uuid": "s1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"The answer."`, strings.TrimSpace(w.Body.String()))
	assert.Empty(t, store.sessions["s1"])
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, serviceDeps{
		store:   newStubStore(),
		docs:    &stubRetriever{},
		bedrock: &fixedModel{name: "bedrock", response: "unused"},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
