// Package attestationhandler serves the enclave's attestation document and
// liveness endpoints.
//
// A verifier fetches GET /get_attestation, checks the quote with
// VerifyAttestation, compares the returned measurements with the expected
// image, and then pins AttestedKey.PublicKey when verifying signed envelopes.
package attestationhandler
