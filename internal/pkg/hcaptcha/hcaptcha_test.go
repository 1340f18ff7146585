package hcaptcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	v := NewVerifier("secret")
	v.endpoint = srv.URL
	return v
}

func TestVerifyDisabledAcceptsEverything(t *testing.T) {
	v := NewVerifier("")
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify(context.Background(), "", ""))
}

func TestVerifySuccess(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		assert.Equal(t, "203.0.113.7", r.PostForm.Get("remoteip"))
		_ = json.NewEncoder(w).Encode(Response{Success: true})
	})

	assert.NoError(t, v.Verify(context.Background(), "tok", "203.0.113.7"))
}

func TestVerifyRejected(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Response{Success: false, ErrorCodes: []string{"invalid-input-response"}})
	})

	err := v.Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewVerifier("secret")
	assert.ErrorIs(t, v.Verify(context.Background(), "", ""), ErrEmptyToken)
}
