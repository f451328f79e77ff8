package kms

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-contact-attestor/interfaces"
)

// Supported signature schemes for the enclave key.
const (
	// SchemeEd25519 signs the message directly. Verifiable with
	// sui::ed25519::ed25519_verify.
	SchemeEd25519 = "ed25519"

	// SchemeSecp256k1 signs keccak256(message) and produces 65-byte [R || S || V]
	// signatures, so EVM contracts can ecrecover the enclave address.
	SchemeSecp256k1 = "secp256k1"

	// SchemeDilithium3 is the post-quantum CRYSTALS-Dilithium mode 3 scheme.
	SchemeDilithium3 = "dilithium3"
)

// SupportedSchemes lists the values accepted by NewEphemeralKey.
var SupportedSchemes = []string{SchemeEd25519, SchemeSecp256k1, SchemeDilithium3}

// NewEphemeralKey generates a fresh in-memory key for the given scheme.
// The key is meant to be created once at startup and discarded at exit.
func NewEphemeralKey(scheme string) (interfaces.Signer, error) {
	switch scheme {
	case SchemeEd25519:
		return NewEd25519Key(rand.Reader)
	case SchemeSecp256k1:
		return NewSecp256k1Key()
	case SchemeDilithium3:
		return NewDilithium3Key(rand.Reader)
	default:
		return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}

// Ed25519Key is the default enclave key.
type Ed25519Key struct {
	priv ed25519.PrivateKey
}

func NewEd25519Key(random io.Reader) (*Ed25519Key, error) {
	_, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("could not generate ed25519 key: %w", err)
	}
	return &Ed25519Key{priv: priv}, nil
}

// NewEd25519KeyFromSeed derives the key from a 32-byte seed. Used in tests.
func NewEd25519KeyFromSeed(seed []byte) (*Ed25519Key, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Ed25519Key{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func (k *Ed25519Key) Scheme() string { return SchemeEd25519 }

func (k *Ed25519Key) PublicKey() []byte {
	return []byte(k.priv.Public().(ed25519.PublicKey))
}

func (k *Ed25519Key) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}

// Secp256k1Key signs with the Ethereum curve.
type Secp256k1Key struct {
	priv *ecdsa.PrivateKey
}

func NewSecp256k1Key() (*Secp256k1Key, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("could not generate secp256k1 key: %w", err)
	}
	return &Secp256k1Key{priv: priv}, nil
}

// NewSecp256k1KeyFromBytes loads a raw 32-byte private scalar. Used in tests.
func NewSecp256k1KeyFromBytes(d []byte) (*Secp256k1Key, error) {
	priv, err := crypto.ToECDSA(d)
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 key: %w", err)
	}
	return &Secp256k1Key{priv: priv}, nil
}

func (k *Secp256k1Key) Scheme() string { return SchemeSecp256k1 }

// PublicKey returns the 65-byte uncompressed public key.
func (k *Secp256k1Key) PublicKey() []byte {
	return crypto.FromECDSAPub(&k.priv.PublicKey)
}

// Address returns the Ethereum address ecrecover yields for this key.
func (k *Secp256k1Key) Address() common.Address {
	return crypto.PubkeyToAddress(k.priv.PublicKey)
}

func (k *Secp256k1Key) Sign(message []byte) ([]byte, error) {
	return crypto.Sign(crypto.Keccak256(message), k.priv)
}

// Dilithium3Key is a post-quantum enclave key.
type Dilithium3Key struct {
	sk  *mode3.PrivateKey
	pub []byte
}

func NewDilithium3Key(random io.Reader) (*Dilithium3Key, error) {
	pk, sk, err := mode3.GenerateKey(random)
	if err != nil {
		return nil, fmt.Errorf("could not generate dilithium3 key: %w", err)
	}
	pub, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("could not encode dilithium3 public key: %w", err)
	}
	return &Dilithium3Key{sk: sk, pub: pub}, nil
}

func (k *Dilithium3Key) Scheme() string { return SchemeDilithium3 }

func (k *Dilithium3Key) PublicKey() []byte {
	out := make([]byte, len(k.pub))
	copy(out, k.pub)
	return out
}

func (k *Dilithium3Key) Sign(message []byte) ([]byte, error) {
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(k.sk, message, sig)
	return sig, nil
}

// ErrInvalidSignature is returned when a signature does not verify.
var ErrInvalidSignature = errors.New("invalid signature")

// VerifySignature checks sig over message for the given scheme and public key.
func VerifySignature(scheme string, pubkey, message, sig []byte) error {
	switch scheme {
	case SchemeEd25519:
		if len(pubkey) != ed25519.PublicKeySize {
			return fmt.Errorf("invalid ed25519 public key length %d", len(pubkey))
		}
		if !ed25519.Verify(ed25519.PublicKey(pubkey), message, sig) {
			return ErrInvalidSignature
		}
		return nil

	case SchemeSecp256k1:
		if len(sig) != crypto.SignatureLength {
			return fmt.Errorf("invalid secp256k1 signature length %d", len(sig))
		}
		if sig[crypto.RecoveryIDOffset] > 1 {
			return ErrInvalidSignature
		}
		if !crypto.VerifySignature(pubkey, crypto.Keccak256(message), sig[:crypto.RecoveryIDOffset]) {
			return ErrInvalidSignature
		}
		return nil

	case SchemeDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pubkey); err != nil {
			return fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
		if len(sig) != mode3.SignatureSize {
			return fmt.Errorf("invalid dilithium3 signature length %d", len(sig))
		}
		if !mode3.Verify(&pk, message, sig) {
			return ErrInvalidSignature
		}
		return nil

	default:
		return fmt.Errorf("unsupported signature scheme %q", scheme)
	}
}
