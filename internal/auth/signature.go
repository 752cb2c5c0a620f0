// Package auth binds a request to an agent identity. A request is accepted
// when its Ed25519 signature over method+path+timestamp+body verifies under
// the agent's registered key and the timestamp lies inside the replay window.
package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/nacl/sign"
)

const (
	RegisterPath        = "/register"
	DefaultReplayWindow = 60 * time.Second
)

var (
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrTimestampExpired   = errors.New("request timestamp expired")
	ErrInvalidBody        = errors.New("invalid JSON body")
	ErrMissingPublicKey   = errors.New("public key missing")
	ErrMalformedPublicKey = errors.New("malformed public key")
	ErrAgentNotFound      = errors.New("agent not found")
	ErrMalformedSignature = errors.New("malformed signature")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// KeyResolver returns the hex public key registered for an agent, or ""
// when the agent does not exist.
type KeyResolver interface {
	PublicKey(ctx context.Context, agentID string) (string, error)
}

// SignedRequest is what a caller presents: the request line, the raw body
// and the three X-* headers.
type SignedRequest struct {
	Method    string
	Path      string
	Timestamp string
	Body      []byte
	AgentID   string
	Signature string
}

type Verifier struct {
	keys   KeyResolver
	window time.Duration
	now    func() time.Time
}

func NewVerifier(keys KeyResolver, window time.Duration) *Verifier {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &Verifier{keys: keys, window: window, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify returns the authenticated agent id.
func (v *Verifier) Verify(ctx context.Context, req SignedRequest) (string, error) {
	ts, err := strconv.ParseInt(req.Timestamp, 10, 64)
	if err != nil {
		return "", ErrInvalidTimestamp
	}

	// A request exactly window seconds old is still accepted.
	skew := v.now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(v.window/time.Second) {
		return "", ErrTimestampExpired
	}

	publicKeyHex, err := v.resolveKey(ctx, req)
	if err != nil {
		return "", err
	}

	publicKey, err := decodePublicKey(publicKeyHex)
	if err != nil {
		return "", err
	}

	sig, err := hex.DecodeString(req.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return "", ErrMalformedSignature
	}

	signed := make([]byte, 0, len(sig)+len(req.Body)+64)
	signed = append(signed, sig...)
	signed = append(signed, Message(req.Method, req.Path, req.Timestamp, req.Body)...)
	if _, ok := sign.Open(nil, signed, publicKey); !ok {
		return "", ErrInvalidSignature
	}

	return req.AgentID, nil
}

func (v *Verifier) resolveKey(ctx context.Context, req SignedRequest) (string, error) {
	if req.Path == RegisterPath {
		var payload struct {
			PublicKey string `json:"public_key"`
		}
		if err := json.Unmarshal(req.Body, &payload); err != nil {
			return "", ErrInvalidBody
		}
		if payload.PublicKey == "" {
			return "", ErrMissingPublicKey
		}
		return payload.PublicKey, nil
	}

	key, err := v.keys.PublicKey(ctx, req.AgentID)
	if err != nil {
		return "", fmt.Errorf("resolving public key: %w", err)
	}
	if key == "" {
		return "", ErrAgentNotFound
	}
	return key, nil
}

// Message builds the exact bytes a caller signs.
func Message(method, path, timestamp string, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(timestamp)+len(body))
	msg = append(msg, method...)
	msg = append(msg, path...)
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return msg
}

func decodePublicKey(h string) (*[ed25519.PublicKeySize]byte, error) {
	raw, err := hex.DecodeString(h)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrMalformedPublicKey
	}
	var key [ed25519.PublicKeySize]byte
	copy(key[:], raw)
	return &key, nil
}
