package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"

	"anonswap/pkg/kv"
)

const secretKey = "identity-secret"

// ErrNoSecret is returned when no identity secret has been stored
var ErrNoSecret = errors.New("no identity secret stored")

// Proof binds a message to an identity within a scope
type Proof struct {
	Commitment string `json:"commitment"`
	Nullifier  string `json:"nullifier"`
	Context    string `json:"context"`
	Scope      string `json:"scope"`
	Message    string `json:"message"`
	Points     []byte `json:"points"`
}

// Bytes is the canonical encoding used for hashing
func (p *Proof) Bytes() []byte {
	parts := []string{p.Commitment, p.Nullifier, p.Context, p.Scope, p.Message, hex.EncodeToString(p.Points)}
	return []byte(strings.Join(parts, "|"))
}

// Prover derives commitments and proofs from an identity secret
type Prover interface {
	Commitment(secret string) (string, error)
	Prove(secret, appContext, message, scope string) (*Proof, error)
}

// LocalProver is a deterministic keccak construction over an HKDF-derived
// identity key. Same inputs always give the same proof.
type LocalProver struct{}

func deriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	r := hkdf.New(sha256.New, []byte(secret), []byte("anonswap-identity"), []byte("v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive identity key: %w", err)
	}
	return key, nil
}

func (LocalProver) Commitment(secret string) (string, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(crypto.Keccak256(key)), nil
}

func (p LocalProver) Prove(secret, appContext, message, scope string) (*Proof, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}

	return &Proof{
		Commitment: hex.EncodeToString(crypto.Keccak256(key)),
		Nullifier:  hex.EncodeToString(crypto.Keccak256(key, []byte(scope))),
		Context:    appContext,
		Scope:      scope,
		Message:    message,
		Points:     crypto.Keccak256(key, []byte(appContext), []byte{0}, []byte(message), []byte{0}, []byte(scope)),
	}, nil
}

// NewSecret returns a fresh random identity secret
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// LoadSecret reads the stored identity secret
func LoadSecret(ctx context.Context, store kv.Store) (string, error) {
	b, err := store.Get(ctx, secretKey)
	if errors.Is(err, kv.ErrNotFound) {
		return "", ErrNoSecret
	}
	if err != nil {
		return "", fmt.Errorf("load identity secret: %w", err)
	}
	secret := strings.TrimSpace(string(b))
	if secret == "" {
		return "", ErrNoSecret
	}
	return secret, nil
}

// SaveSecret stores secret, replacing any previous one
func SaveSecret(ctx context.Context, store kv.Store, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrNoSecret
	}
	if err := store.Set(ctx, secretKey, []byte(secret)); err != nil {
		return fmt.Errorf("save identity secret: %w", err)
	}
	return nil
}
