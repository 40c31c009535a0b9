package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedder(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.5,-0.25,1]}],
			"usage":{"prompt_tokens":2,"total_tokens":2}}`)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("test-key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "vector\nsearch")
	require.NoError(t, err)
	assert.Equal(t, Vector{0.5, -0.25, 1}, vec)
	assert.Equal(t, "vector search", gotBody["input"])
	assert.Equal(t, "text-embedding-3-small", gotBody["model"])
}

func TestOpenAIEmbedderErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewOpenAIEmbedder("", "")
		assert.Error(t, err)
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"message":"bad input","type":"invalid_request_error"}}`)
		}))
		defer srv.Close()

		e, err := NewOpenAIEmbedder("k", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
		require.NoError(t, err)
		_, err = e.Embed(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("empty data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"object":"list","model":"m","data":[],"usage":{"prompt_tokens":0,"total_tokens":0}}`)
		}))
		defer srv.Close()

		e, err := NewOpenAIEmbedder("k", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
		require.NoError(t, err)
		_, err = e.Embed(context.Background(), "x")
		assert.Error(t, err)
	})
}

func TestFunc(t *testing.T) {
	m := new(MockEmbedder)
	m.On("Embed", mock.Anything, "ok").Return(Vector{1, 2}, nil).Once()
	m.On("Embed", mock.Anything, "bad").Return(nil, errors.New("boom")).Once()

	fn := Func(m)
	vec, err := fn(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)

	_, err = fn(context.Background(), "bad")
	assert.EqualError(t, err, "boom")
	m.AssertExpectations(t)
}
