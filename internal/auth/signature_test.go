package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKeys map[string]string

func (k staticKeys) PublicKey(ctx context.Context, agentID string) (string, error) {
	return k[agentID], nil
}

type failingKeys struct{}

func (failingKeys) PublicKey(ctx context.Context, agentID string) (string, error) {
	return "", errors.New("db down")
}

var fixedNow = time.Unix(1_700_000_000, 0)

func newKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub, priv
}

func signed(priv ed25519.PrivateKey, method, path, agentID string, ts int64, body []byte) SignedRequest {
	tsStr := strconv.FormatInt(ts, 10)
	sig := ed25519.Sign(priv, Message(method, path, tsStr, body))
	return SignedRequest{
		Method:    method,
		Path:      path,
		Timestamp: tsStr,
		Body:      body,
		AgentID:   agentID,
		Signature: hex.EncodeToString(sig),
	}
}

func TestVerifyKnownAgent(t *testing.T) {
	pub, priv := newKey(t)
	v := NewVerifier(staticKeys{"bot": hex.EncodeToString(pub)}, 0).WithClock(func() time.Time { return fixedNow })

	id, err := v.Verify(context.Background(), signed(priv, "POST", "/stake", "bot", fixedNow.Unix(), []byte(`{"amount":1}`)))
	require.NoError(t, err)
	assert.Equal(t, "bot", id)
}

func TestVerifyRegistrationUsesBodyKey(t *testing.T) {
	pub, priv := newKey(t)
	v := NewVerifier(staticKeys{}, 0).WithClock(func() time.Time { return fixedNow })
	body := []byte(`{"id":"newbie","name":"New","public_key":"` + hex.EncodeToString(pub) + `"}`)

	id, err := v.Verify(context.Background(), signed(priv, "POST", RegisterPath, "newbie", fixedNow.Unix(), body))
	require.NoError(t, err)
	assert.Equal(t, "newbie", id)
}

func TestVerifyRegistrationWithSomeoneElsesKey(t *testing.T) {
	victimPub, _ := newKey(t)
	_, attackerPriv := newKey(t)
	v := NewVerifier(staticKeys{}, 0).WithClock(func() time.Time { return fixedNow })
	body := []byte(`{"id":"victim","name":"V","public_key":"` + hex.EncodeToString(victimPub) + `"}`)

	_, err := v.Verify(context.Background(), signed(attackerPriv, "POST", RegisterPath, "victim", fixedNow.Unix(), body))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyReplayWindowBoundary(t *testing.T) {
	pub, priv := newKey(t)
	v := NewVerifier(staticKeys{"bot": hex.EncodeToString(pub)}, 60*time.Second).WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	for _, offset := range []int64{-60, 0, 60} {
		_, err := v.Verify(ctx, signed(priv, "POST", "/stake", "bot", fixedNow.Unix()+offset, nil))
		assert.NoError(t, err, "offset %d", offset)
	}
	for _, offset := range []int64{-61, 61, -70, 3600} {
		_, err := v.Verify(ctx, signed(priv, "POST", "/stake", "bot", fixedNow.Unix()+offset, nil))
		assert.ErrorIs(t, err, ErrTimestampExpired, "offset %d", offset)
	}
}

func TestVerifyExpiredBeatsBadSignature(t *testing.T) {
	v := NewVerifier(staticKeys{}, 0).WithClock(func() time.Time { return fixedNow })
	req := SignedRequest{
		Method:    "POST",
		Path:      "/stake",
		AgentID:   "ghost",
		Timestamp: strconv.FormatInt(fixedNow.Unix()-120, 10),
		Signature: "zz",
	}
	_, err := v.Verify(context.Background(), req)
	assert.ErrorIs(t, err, ErrTimestampExpired)
}

func TestVerifyBitFlipRejected(t *testing.T) {
	pub, priv := newKey(t)
	v := NewVerifier(staticKeys{"bot": hex.EncodeToString(pub)}, 0).WithClock(func() time.Time { return fixedNow })
	req := signed(priv, "POST", "/agent/update", "bot", fixedNow.Unix(), []byte(`{"bio":"hi"}`))

	sig, _ := hex.DecodeString(req.Signature)
	for _, bit := range []int{0, 7, 200, 511} {
		flipped := append([]byte(nil), sig...)
		flipped[bit/8] ^= 1 << (bit % 8)
		tampered := req
		tampered.Signature = hex.EncodeToString(flipped)

		_, err := v.Verify(context.Background(), tampered)
		assert.ErrorIs(t, err, ErrInvalidSignature, "bit %d", bit)
	}
}

func TestVerifyTamperedRequestParts(t *testing.T) {
	pub, priv := newKey(t)
	v := NewVerifier(staticKeys{"bot": hex.EncodeToString(pub)}, 0).WithClock(func() time.Time { return fixedNow })
	base := signed(priv, "POST", "/stake", "bot", fixedNow.Unix(), []byte(`{"amount":5}`))

	body := base
	body.Body = []byte(`{"amount":500}`)
	path := base
	path.Path = "/verify"
	method := base
	method.Method = "PUT"
	ts := base
	ts.Timestamp = strconv.FormatInt(fixedNow.Unix()+1, 10)

	for name, req := range map[string]SignedRequest{"body": body, "path": path, "method": method, "timestamp": ts} {
		_, err := v.Verify(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidSignature, name)
	}
}

func TestVerifyFailures(t *testing.T) {
	pub, priv := newKey(t)
	keys := staticKeys{"bot": hex.EncodeToString(pub), "broken": "not-hex"}
	v := NewVerifier(keys, 0).WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()
	now := fixedNow.Unix()

	tests := []struct {
		name string
		req  SignedRequest
		want error
	}{
		{
			name: "timestamp not a number",
			req:  SignedRequest{Method: "POST", Path: "/stake", AgentID: "bot", Timestamp: "yesterday"},
			want: ErrInvalidTimestamp,
		},
		{
			name: "unknown agent",
			req:  signed(priv, "POST", "/stake", "ghost", now, nil),
			want: ErrAgentNotFound,
		},
		{
			name: "stored key is not hex",
			req:  signed(priv, "POST", "/stake", "broken", now, nil),
			want: ErrMalformedPublicKey,
		},
		{
			name: "signature not hex",
			req: func() SignedRequest {
				r := signed(priv, "POST", "/stake", "bot", now, nil)
				r.Signature = "xyz"
				return r
			}(),
			want: ErrMalformedSignature,
		},
		{
			name: "signature too short",
			req: func() SignedRequest {
				r := signed(priv, "POST", "/stake", "bot", now, nil)
				r.Signature = r.Signature[:64]
				return r
			}(),
			want: ErrMalformedSignature,
		},
		{
			name: "registration body not json",
			req:  signed(priv, "POST", RegisterPath, "bot", now, []byte("{")),
			want: ErrInvalidBody,
		},
		{
			name: "registration without key",
			req:  signed(priv, "POST", RegisterPath, "bot", now, []byte(`{"id":"bot"}`)),
			want: ErrMissingPublicKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyResolverErrorIsWrapped(t *testing.T) {
	v := NewVerifier(failingKeys{}, 0).WithClock(func() time.Time { return fixedNow })
	_, err := v.Verify(context.Background(), SignedRequest{
		Method: "POST", Path: "/stake", AgentID: "bot", Timestamp: strconv.FormatInt(fixedNow.Unix(), 10),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestMessageConcatenation(t *testing.T) {
	assert.Equal(t, `POST/register1700000000{"a":1}`, string(Message("POST", "/register", "1700000000", []byte(`{"a":1}`))))
}
