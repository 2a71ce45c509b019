package public

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mockgate/mockgate/internal/app"
	"github.com/mockgate/mockgate/internal/credentials"
	"github.com/mockgate/mockgate/internal/gateway"
	"github.com/mockgate/mockgate/internal/limits"
	"github.com/mockgate/mockgate/internal/mockai"
	"github.com/mockgate/mockgate/internal/usage"
)

type testFixture struct {
	app   *fiber.App
	store *credentials.MemoryStore
	sink  *usage.MemorySink
	cred  *credentials.Credential
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := credentials.NewMemoryStore()
	sink := usage.NewMemorySink()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := usage.NewRecorder(sink, store, logger, time.Second)
	counter := limits.NewWindowCounter(client)

	cred := &credentials.Credential{
		Token:              "sk-valid-token",
		Name:               "fixture",
		Plan:               credentials.PlanBasic,
		Status:             credentials.StatusActive,
		CanChat:            true,
		CanEmbeddings:      true,
		CanModerations:     true,
		RateLimitPerMinute: 60,
		RateLimitPerDay:    10_000,
	}
	store.Put(cred)

	container := &app.Container{
		Credentials: store,
		Counter:     counter,
		Recorder:    recorder,
		Gateway:     gateway.New(store, counter, recorder, nil, logger),
		Generator:   mockai.NewGenerator(),
		Logger:      logger,
	}

	fa := fiber.New()
	Register(fa, container)

	return &testFixture{app: fa, store: store, sink: sink, cred: cred}
}

func (f *testFixture) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return res
}

func errorCode(t *testing.T, res *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body.Error.Code
}

func TestMissingAuthorizationHeader(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodPost, "/v1/chat/completions", "", fiber.Map{
		"model":    "gpt-4",
		"messages": []fiber.Map{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "missing_authorization", errorCode(t, res))
	require.Empty(t, f.sink.Events())
}

func TestInvalidToken(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodPost, "/v1/chat/completions", "sk-wrong", fiber.Map{
		"model":    "gpt-4",
		"messages": []fiber.Map{{"role": "user", "content": "hi"}},
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "invalid_api_key", errorCode(t, res))
	require.Empty(t, f.sink.Events())
}

func TestChatCompletionHappyPath(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodPost, "/v1/chat/completions", f.cred.Token, fiber.Map{
		"model":    "gpt-3.5-turbo",
		"messages": []fiber.Map{{"role": "user", "content": "write a haiku"}},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var completion mockai.ChatResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&completion))
	require.Equal(t, "chat.completion", completion.Object)
	require.Equal(t, "gpt-3.5-turbo", completion.Model)
	require.Len(t, completion.Choices, 1)

	events := f.sink.Events()
	require.Len(t, events, 1)
	require.Equal(t, credentials.OperationChat, events[0].Operation)
	require.Equal(t, http.StatusOK, events[0].StatusCode)
	require.Equal(t, completion.Usage.TotalTokens, events[0].TotalTokens)
}

func TestChatCompletionRequiresMessages(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodPost, "/v1/chat/completions", f.cred.Token, fiber.Map{
		"model": "gpt-4",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "invalid_request", errorCode(t, res))
	require.Empty(t, f.sink.Events())
}

func TestCapabilityDeniedReturns403(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodPost, "/v1/images/generations", f.cred.Token, fiber.Map{
		"prompt": "a lighthouse at dusk",
	})
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Equal(t, "operation_not_permitted", errorCode(t, res))

	events := f.sink.Events()
	require.Len(t, events, 1)
	require.Equal(t, http.StatusForbidden, events[0].StatusCode)
}

func TestRateLimitedReturns429WithRetryAfter(t *testing.T) {
	f := newTestFixture(t)
	f.cred.RateLimitPerMinute = 1
	f.store.Put(f.cred)

	body := fiber.Map{
		"model":    "gpt-4",
		"messages": []fiber.Map{{"role": "user", "content": "hi"}},
	}
	first := f.request(t, http.MethodPost, "/v1/chat/completions", f.cred.Token, body)
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := f.request(t, http.MethodPost, "/v1/chat/completions", f.cred.Token, body)
	require.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	require.NotEmpty(t, second.Header.Get("Retry-After"))
	require.Equal(t, "rate_limit_exceeded", errorCode(t, second))
}

func TestEmbeddingsHappyPath(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodPost, "/v1/embeddings", f.cred.Token, fiber.Map{
		"model": "text-embedding-ada-002",
		"input": "some text to embed",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var embeddings mockai.EmbeddingsResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&embeddings))
	require.Len(t, embeddings.Data, 1)
	require.Len(t, embeddings.Data[0].Embedding, 1536)
}

func TestModerationsHappyPath(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodPost, "/v1/moderations", f.cred.Token, fiber.Map{
		"input": []string{"I hate this"},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var moderation mockai.ModerationResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&moderation))
	require.Len(t, moderation.Results, 1)
	require.True(t, moderation.Results[0].Flagged)
}

func TestModelsCatalog(t *testing.T) {
	f := newTestFixture(t)

	res := f.request(t, http.MethodGet, "/v1/models", f.cred.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var list mockai.ModelList
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.NotEmpty(t, list.Data)

	single := f.request(t, http.MethodGet, "/v1/models/gpt-4", f.cred.Token, nil)
	require.Equal(t, http.StatusOK, single.StatusCode)

	missing := f.request(t, http.MethodGet, "/v1/models/not-a-model", f.cred.Token, nil)
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	require.Equal(t, "model_not_found", errorCode(t, missing))

	anonymous := f.request(t, http.MethodGet, "/v1/models", "", nil)
	require.Equal(t, http.StatusUnauthorized, anonymous.StatusCode)
}
