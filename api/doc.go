/*
Package api holds the request and response types shared by the enclave's HTTP
handlers and their clients, along with the HTTP server configuration.

Subpackages:

  - attestationhandler: ping, health and the attestation document binding the
    enclave's ephemeral key to its measurements
  - contactshandler: CSV contact processing and single phone digest lookups
  - server: router, middleware and lifecycle for serving the handlers

Every signed response is an intent.SignedEnvelope. Clients are expected to
verify the attestation first, pin the attested public key and then verify
each envelope against it.
*/
package api
