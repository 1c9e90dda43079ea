package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/core"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewWithHTTPClient(srv.Client(), Config{
		ProviderName: "testprovider",
		BaseURL:      srv.URL,
	}, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer test-key")
	})
}

func TestClientDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ping", body["input"])

		json.NewEncoder(w).Encode(map[string]string{"output": "pong"})
	}))
	defer srv.Close()

	var result struct {
		Output string `json:"output"`
	}
	err := newTestClient(srv).Do(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body:     map[string]string{"input": "ping"},
	}, &result)
	require.NoError(t, err)
	assert.Equal(t, "pong", result.Output)
}

func TestClientDoRequestHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "value", r.Header.Get("X-Extra"))
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	err := newTestClient(srv).Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/",
		Headers:  map[string]string{"X-Extra": "value"},
	}, nil)
	require.NoError(t, err)
}

func TestClientErrorBody(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"structured error", http.StatusUnauthorized, `{"error":{"message":"Invalid API key"}}`, "Invalid API key"},
		{"plain text error", http.StatusInternalServerError, "upstream exploded", "upstream exploded"},
		{"empty message", http.StatusBadRequest, `{"error":{"message":""}}`, `{"error":{"message":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := newTestClient(srv).Do(context.Background(), Request{
				Method:   http.MethodPost,
				Endpoint: "/chat/completions",
			}, nil)
			require.Error(t, err)

			var svcErr *core.ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, core.ErrorTypeProvider, svcErr.Type)
			assert.Equal(t, "testprovider", svcErr.Provider)
			assert.Equal(t, tt.message, svcErr.Message)
		})
	}
}

func TestClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	var result map[string]interface{}
	err := newTestClient(srv).Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/",
	}, &result)
	require.Error(t, err)
	assert.True(t, core.IsErrorType(err, core.ErrorTypeProvider))
}

func TestClientConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := newTestClient(srv).Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/",
	}, nil)
	require.Error(t, err)
	assert.True(t, core.IsErrorType(err, core.ErrorTypeProvider))
}

func TestClientContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestClient(srv).Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "/",
	}, nil)
	require.Error(t, err)
}
