package interfaces

// Signer is the enclave's ephemeral signing key. It is created once at process
// start, shared read-only by every request and never exported in private form.
type Signer interface {
	// Scheme names the signature algorithm, e.g. "ed25519".
	Scheme() string

	// PublicKey returns the encoded public key verifiers check signatures against.
	PublicKey() []byte

	// Sign signs message as-is. Schemes that sign a digest hash it internally.
	Sign(message []byte) ([]byte, error)
}

// Clock reads wall-clock time for envelope timestamps.
type Clock interface {
	NowMillis() (uint64, error)
}
