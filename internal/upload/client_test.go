package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_Success(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"urn":"urn:adsk:1","status":"queued"}`))
	}))
	defer srv.Close()

	c, err := New(Params{URL: srv.URL, APIKey: "tok"})
	require.NoError(t, err)
	m, err := c.Upload(context.Background(), "uploads/abc_cube.stl")
	require.NoError(t, err)

	assert.Equal(t, "uploads/abc_cube.stl", got["file_path"])
	assert.Equal(t, "urn:adsk:1", m.ID)
	assert.Equal(t, "queued", m.Raw["status"])
}

func TestUpload_IDPrecedence(t *testing.T) {
	assert.Equal(t, "a", remoteID(map[string]any{"id": "a", "model_id": "b", "urn": "c"}))
	assert.Equal(t, "b", remoteID(map[string]any{"id": "", "model_id": "b"}))
	assert.Equal(t, "42", remoteID(map[string]any{"id": float64(42)}))
	assert.Equal(t, "", remoteID(map[string]any{}))
}

func TestUpload_NonSuccessIsIntegrationFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance\n"))
	}))
	defer srv.Close()

	var debug bytes.Buffer
	c, err := New(Params{URL: srv.URL, DebugOut: &debug})
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), "x.stl")

	require.ErrorIs(t, err, ErrIntegrationFailure)
	var ie *IntegrationError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, http.StatusServiceUnavailable, ie.Status)
	assert.Equal(t, "maintenance", ie.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Contains(t, debug.String(), "status=503")
}

func TestUpload_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Params{URL: url})
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), "x.stl")

	require.ErrorIs(t, err, ErrIntegrationFailure)
	var ie *IntegrationError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 0, ie.Status)
}

func TestUpload_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	c, err := New(Params{URL: srv.URL})
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), "x.stl")
	assert.ErrorIs(t, err, ErrIntegrationFailure)
}

func TestUpload_NonObjectSuccessBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want any
	}{
		{"array", `[1,2]`, []any{float64(1), float64(2)}},
		{"string", `"ok"`, "ok"},
		{"bool", `true`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := New(Params{URL: srv.URL})
			require.NoError(t, err)
			m, err := c.Upload(context.Background(), "x.stl")
			require.NoError(t, err)
			assert.Equal(t, "", m.ID)
			assert.Empty(t, m.Raw)
			assert.Equal(t, tc.want, m.Response())
		})
	}
}

func TestUpload_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(Params{URL: srv.URL})
	require.NoError(t, err)
	m, err := c.Upload(context.Background(), "x.stl")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, m.Response())
}

func TestIntegrationError_IncludesCause(t *testing.T) {
	err := &IntegrationError{Status: 200, Body: "<html>", Err: errors.New("decode response: bad")}
	assert.Contains(t, err.Error(), "status=200")
	assert.Contains(t, err.Error(), "decode response: bad")
	assert.Equal(t, "cad integration failed: status=503 body=x", (&IntegrationError{Status: 503, Body: "x"}).Error())
}

func TestNew_EmptyURL(t *testing.T) {
	_, err := New(Params{URL: " "})
	assert.Error(t, err)
}
