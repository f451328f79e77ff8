// Package kms provides the enclave's ephemeral signing keys.
//
// A key is generated at startup by NewEphemeralKey and never leaves process
// memory. Supported schemes:
//
//   - ed25519: 32-byte public key, 64-byte signature over the raw message
//   - secp256k1: 65-byte uncompressed public key, 65-byte R||S||V signature
//     over keccak256(message), recoverable to an Ethereum address
//   - dilithium3: post-quantum ML-DSA-65 (round 3) signatures
//
// VerifySignature checks a signature for any supported scheme and is what
// envelope verification builds on.
package kms
