package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithTimeout(5*time.Second))
}

func TestPing(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "AIzaKEY", r.Header.Get("x-goog-api-key"))
		_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-1.5-flash"}]}`))
	})
	require.NoError(t, c.Ping(context.Background(), "AIzaKEY"))
}

func TestPing_InvalidKey(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`))
	})
	err := c.Ping(context.Background(), "AIzaBAD")
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.False(t, IsTransient(err))

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "API_KEY_INVALID", ae.Reason)
	assert.Equal(t, "INVALID_ARGUMENT", ae.Status)
}

func TestGenerate_RequestShape(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		assert.Equal(t, 0.1, req.GenerationConfig.Temperature)
		assert.Equal(t, 40, req.GenerationConfig.TopK)
		assert.Equal(t, 1024, req.GenerationConfig.MaxOutputTokens)
		assert.Len(t, req.SafetySettings, 4)
		for _, s := range req.SafetySettings {
			assert.Equal(t, "BLOCK_NONE", s.Threshold)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"[1,"},{"text":"2]"}]},"finishReason":"STOP"}]}`))
	})
	resp, err := c.Generate(context.Background(), "AIzaKEY", "hello")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", resp.Text())
	assert.False(t, resp.Blocked())
}

func TestGenerate_BlockedPrompt(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY","safetyRatings":[{"category":"HARM_CATEGORY_DANGEROUS_CONTENT","probability":"HIGH"}]}}`))
	})
	resp, err := c.Generate(context.Background(), "AIzaKEY", "x")
	require.NoError(t, err)
	assert.True(t, resp.Blocked())
	assert.Equal(t, "", resp.Text())
	assert.Equal(t, "HARM_CATEGORY_DANGEROUS_CONTENT: HIGH", FormatRatings(resp.FeedbackRatings()))
}

func TestGenerate_ServerErrorIsTransient(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`overloaded`))
		})
		_, err := c.Generate(context.Background(), "AIzaKEY", "x")
		require.Error(t, err)
		assert.True(t, IsTransient(err), "code %d", code)
		assert.ErrorIs(t, err, ErrUnavailable)
	}
}

func TestGenerate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	c := New(WithBaseURL(url))
	_, err := c.Generate(context.Background(), "AIzaKEY", "x")
	require.Error(t, err)
	var te *TransportError
	assert.True(t, errors.As(err, &te))
	assert.True(t, IsTransient(err))
}

func TestGenerate_NonJSONBodyIsNotTransient(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy error</html>`))
	})
	_, err := c.Generate(context.Background(), "AIzaKEY", "x")
	require.Error(t, err)
	var de *DecodeError
	assert.True(t, errors.As(err, &de))
	assert.False(t, IsTransient(err))
	assert.False(t, IsAuth(err))
}

func TestWithModel(t *testing.T) {
	assert.Equal(t, "gemini-pro", New(WithModel("models/gemini-pro")).Model())
	assert.Equal(t, DefaultModel, New(WithModel("")).Model())
}

func TestIsTransient_Nil(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsAuth(errors.New("x")))
}
