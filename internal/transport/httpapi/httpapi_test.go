package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/orchestrator"
)

func newTestTransport(t *testing.T) (*Transport, *orchestrator.CommandQueue) {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	q := orchestrator.NewCommandQueue()
	tr := New(Config{
		JWT:               JWTConfig{SecretKey: "test-secret"},
		AdminUser:         "admin",
		AdminPasswordHash: hash,
	}, q)
	return tr, q
}

func TestHealthRequiresNoAuth(t *testing.T) {
	tr, _ := newTestTransport(t)
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp, err := tr.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCommandRejectsWithoutToken(t *testing.T) {
	tr, _ := newTestTransport(t)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/command", bytes.NewBufferString(`{"line":"status"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := tr.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginThenCommandEnqueues(t *testing.T) {
	tr, q := newTestTransport(t)

	loginReq, _ := http.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(`{"username":"admin","password":"s3cret"}`))
	loginReq.Header.Set("Content-Type", "application/json")
	loginResp, err := tr.app.Test(loginReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	body, err := io.ReadAll(loginResp.Body)
	require.NoError(t, err)
	token := extractToken(t, body)
	require.NotEmpty(t, token)

	cmdReq, _ := http.NewRequest(http.MethodPost, "/api/v1/command", bytes.NewBufferString(`{"line":"status"}`))
	cmdReq.Header.Set("Content-Type", "application/json")
	cmdReq.Header.Set("Authorization", "Bearer "+token)
	cmdResp, err := tr.app.Test(cmdReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, cmdResp.StatusCode)
	assert.Equal(t, 1, q.Len())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	tr, _ := newTestTransport(t)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(`{"username":"admin","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := tr.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func extractToken(t *testing.T, body []byte) string {
	t.Helper()
	var v struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &v))
	return v.Token
}
