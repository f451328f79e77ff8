// Package interfaces defines the small abstractions shared across packages:
// the enclave Signer, the Clock used to timestamp envelopes and the HexBytes
// wire encoding.
package interfaces
