// Package cryptoutils produces and verifies attestation documents.
//
// The enclave binds its ephemeral public key into the quote's report data
// with PublicKeyReportData. DCAP (Intel TDX) quotes are obtained either from
// the local guest or from a remote quote provider; the dummy type exists for
// development outside a TEE and is rejected by clients unless explicitly
// allowed.
package cryptoutils
