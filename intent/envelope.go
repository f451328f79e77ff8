package intent

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/fardream/go-bcs/bcs"
	"github.com/ruteri/tee-contact-attestor/interfaces"
	"github.com/ruteri/tee-contact-attestor/kms"
)

// Payload is anything the enclave can sign: it must have a canonical BCS
// encoding.
type Payload interface {
	MarshalBCS() ([]byte, error)
}

// messageHeader holds the leading fields of the signed struct. BCS writes
// struct fields back to back with no framing, so the header encoding followed
// by the payload encoding is the encoding of the whole message.
type messageHeader struct {
	Intent      uint8
	TimestampMs uint64
}

// SignedEnvelope is the enclave's attested answer to one request. Scope,
// TimestampMs and Payload are the signed fields; Signature, PublicKey and
// SignatureScheme let a verifier check them without trusting the operator.
type SignedEnvelope[T Payload] struct {
	Scope           Scope               `json:"scope"`
	TimestampMs     uint64              `json:"timestamp"`
	Payload         T                   `json:"payload"`
	Signature       interfaces.HexBytes `json:"signature"`
	PublicKey       interfaces.HexBytes `json:"public_key"`
	SignatureScheme string              `json:"signature_scheme"`
}

// Message returns the bytes that are signed for the given fields: the BCS
// encoding of the struct { intent: u8, timestamp_ms: u64, data: T }.
func Message[T Payload](scope Scope, timestampMs uint64, payload T) ([]byte, error) {
	header, err := bcs.Marshal(messageHeader{Intent: uint8(scope), TimestampMs: timestampMs})
	if err != nil {
		return nil, fmt.Errorf("could not encode message header: %w", err)
	}

	data, err := payload.MarshalBCS()
	if err != nil {
		return nil, fmt.Errorf("could not encode %s payload: %w", scope, err)
	}

	return append(header, data...), nil
}

// Message recomputes the signed bytes from the disclosed fields.
func (env *SignedEnvelope[T]) Message() ([]byte, error) {
	return Message(env.Scope, env.TimestampMs, env.Payload)
}

// Sign timestamps payload with clock, binds it to scope and signs it.
// A *ClockError from clock is returned unchanged.
func Sign[T Payload](signer interfaces.Signer, clock interfaces.Clock, scope Scope, payload T) (*SignedEnvelope[T], error) {
	timestampMs, err := clock.NowMillis()
	if err != nil {
		return nil, err
	}

	msg, err := Message(scope, timestampMs, payload)
	if err != nil {
		return nil, err
	}

	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("could not sign %s message: %w", scope, err)
	}

	return &SignedEnvelope[T]{
		Scope:           scope,
		TimestampMs:     timestampMs,
		Payload:         payload,
		Signature:       sig,
		PublicKey:       signer.PublicKey(),
		SignatureScheme: signer.Scheme(),
	}, nil
}

var (
	ErrScopeMismatch = errors.New("envelope scope mismatch")
	ErrKeyMismatch   = errors.New("envelope signed by unexpected key")
	ErrStale         = errors.New("envelope timestamp outside accepted window")
)

// VerifyOptions controls what Verify accepts beyond a valid signature.
type VerifyOptions struct {
	// Scope is the scope the caller expects. Required.
	Scope Scope

	// PublicKey pins the signer, typically to the key bound in the enclave's
	// attestation. Empty accepts the key carried in the envelope.
	PublicKey []byte

	// MaxAge rejects envelopes older than Now-MaxAge or newer than Now+MaxAge.
	// Zero disables the freshness check.
	MaxAge time.Duration

	// Now defaults to time.Now().
	Now time.Time
}

// Verify recomputes the canonical message from env's disclosed fields and
// checks the signature with the declared scheme.
func Verify[T Payload](env *SignedEnvelope[T], opts VerifyOptions) error {
	if env.Scope != opts.Scope {
		return fmt.Errorf("%w: got %s, expected %s", ErrScopeMismatch, env.Scope, opts.Scope)
	}

	if len(opts.PublicKey) > 0 && !bytes.Equal(opts.PublicKey, env.PublicKey) {
		return ErrKeyMismatch
	}

	if opts.MaxAge > 0 {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		signedAt := time.UnixMilli(int64(env.TimestampMs))
		if signedAt.Before(now.Add(-opts.MaxAge)) || signedAt.After(now.Add(opts.MaxAge)) {
			return fmt.Errorf("%w: signed at %s", ErrStale, signedAt.UTC().Format(time.RFC3339))
		}
	}

	msg, err := env.Message()
	if err != nil {
		return err
	}

	if err := kms.VerifySignature(env.SignatureScheme, env.PublicKey, msg, env.Signature); err != nil {
		return fmt.Errorf("could not verify %s envelope: %w", env.Scope, err)
	}
	return nil
}
