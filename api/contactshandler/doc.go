// Package contactshandler serves the contact pipeline over HTTP and provides
// matching client functions.
//
// # Endpoints
//
//   - POST /process_data accepts {"payload":{"csv":"..."}} and returns a
//     signed envelope over the parsed contact batch
//   - GET /api/public/phone_hash/{phone} returns a signed envelope over the
//     digest of a single phone number
//
// Rejected input is reported as 400 with an api.ErrorResponse whose Kind is
// one of the contacts.Kind values and whose Row is the 1-based line that
// failed. Clock or signing failures are reported as 500 with kind "internal".
//
// # Client usage
//
//	env, err := contactshandler.ProcessData("http://enclave:3000", csv)
//	if err != nil {
//	    return err
//	}
//	err = intent.Verify(env, intent.VerifyOptions{
//	    Scope:     intent.ScopeProcessData,
//	    PublicKey: attestedKey,
//	})
package contactshandler
