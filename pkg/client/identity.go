package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/nacl/sign"
)

// Identity is an agent id together with its Ed25519 key pair.
type Identity struct {
	AgentID    string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateIdentity creates a fresh key pair for agentID.
func GenerateIdentity(agentID string) (*Identity, error) {
	pub, priv, err := sign.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return &Identity{
		AgentID:    agentID,
		PublicKey:  ed25519.PublicKey(pub[:]),
		PrivateKey: ed25519.PrivateKey(priv[:]),
	}, nil
}

func (i *Identity) PublicKeyHex() string {
	return hex.EncodeToString(i.PublicKey)
}

// Sign returns the detached signature over message.
func (i *Identity) Sign(message []byte) []byte {
	var priv [64]byte
	copy(priv[:], i.PrivateKey)
	signed := sign.Sign(nil, message, &priv)
	return signed[:sign.Overhead]
}

type identityFile struct {
	AgentID    string `json:"agent_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// SaveIdentity writes the identity as JSON, readable only by the owner.
func SaveIdentity(path string, id *Identity) error {
	raw, err := json.MarshalIndent(identityFile{
		AgentID:    id.AgentID,
		PublicKey:  id.PublicKeyHex(),
		PrivateKey: hex.EncodeToString(id.PrivateKey),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func LoadIdentity(path string) (*Identity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f identityFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	priv, err := hex.DecodeString(f.PrivateKey)
	if err != nil || len(priv) != ed25519.PrivateKeySize {
		return nil, errors.New("identity file has a malformed private key")
	}
	if f.AgentID == "" {
		return nil, errors.New("identity file has no agent id")
	}
	key := ed25519.PrivateKey(priv)
	return &Identity{
		AgentID:    f.AgentID,
		PublicKey:  key.Public().(ed25519.PublicKey),
		PrivateKey: key,
	}, nil
}
