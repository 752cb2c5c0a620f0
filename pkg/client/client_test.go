package client

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentitySignMatchesEd25519(t *testing.T) {
	id, err := GenerateIdentity("bot-1")
	require.NoError(t, err)

	msg := []byte("POST/stake1700000000{}")
	assert.Equal(t, ed25519.Sign(id.PrivateKey, msg), id.Sign(msg))
	assert.True(t, ed25519.Verify(id.PublicKey, msg, id.Sign(msg)))
	assert.Len(t, id.PublicKeyHex(), 64)
}

func TestIdentityFileRoundTrip(t *testing.T) {
	id, err := GenerateIdentity("bot-1")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, SaveIdentity(path, id))

	loaded, err := LoadIdentity(path)
	require.NoError(t, err)
	assert.Equal(t, id.AgentID, loaded.AgentID)
	assert.Equal(t, id.PublicKey, loaded.PublicKey)
	assert.Equal(t, id.PrivateKey, loaded.PrivateKey)

	_, err = LoadIdentity(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSignedRequestHeaders(t *testing.T) {
	id, err := GenerateIdentity("bot-1")
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)

	var got *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bot-1","trust_score":610,"staked_amount":600}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", id, WithClock(func() time.Time { return now }))
	agent, err := c.Stake(context.Background(), "0xabc", 600)
	require.NoError(t, err)
	assert.Equal(t, 610, agent.TrustScore)

	assert.Equal(t, "/stake", got.URL.Path)
	assert.Equal(t, "bot-1", got.Header.Get("X-Agent-ID"))
	assert.Equal(t, "1700000000", got.Header.Get("X-Timestamp"))

	sig, err := hex.DecodeString(got.Header.Get("X-Signature"))
	require.NoError(t, err)
	msg := append([]byte("POST/stake1700000000"), body...)
	assert.True(t, ed25519.Verify(id.PublicKey, msg, sig))
	assert.JSONEq(t, `{"agent_id":"bot-1","tx_hash":"0xabc","amount":600}`, string(body))
}

func TestErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/agent/ghost":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"Agent not found"}}`))
		case "/agents/top":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"VALIDATION_ERROR","fields":{"limit":"bad"}}}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	ctx := context.Background()

	_, err := c.GetAgent(ctx, "ghost")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	_, err = c.Top(ctx, "trust_score", 5)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad", apiErr.Fields["limit"])

	_, err = c.Reviews(ctx, "x")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream down", apiErr.Message)

	_, err = c.Stake(ctx, "0x1", 1)
	assert.Error(t, err)
}
