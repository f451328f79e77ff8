// Package enclave wires the contact pipeline to the enclave's signing key.
//
// Processor is safe for concurrent use: it holds only the read-only signer and
// clock, and every call works on its own records.
package enclave

import (
	"github.com/ruteri/tee-contact-attestor/contacts"
	"github.com/ruteri/tee-contact-attestor/intent"
	"github.com/ruteri/tee-contact-attestor/interfaces"
)

type ContactsEnvelope = intent.SignedEnvelope[contacts.ContactBatch]
type PhoneDigestEnvelope = intent.SignedEnvelope[contacts.PhoneDigest]

type Processor struct {
	signer interfaces.Signer
	clock  interfaces.Clock
}

func NewProcessor(signer interfaces.Signer, clock interfaces.Clock) *Processor {
	return &Processor{signer: signer, clock: clock}
}

func (p *Processor) Signer() interfaces.Signer {
	return p.signer
}

// Process parses csv into a contact batch and signs it under
// intent.ScopeProcessData. Errors are either a *contacts.ParseError (client
// input) or an internal failure such as *intent.ClockError.
func (p *Processor) Process(csv string) (*ContactsEnvelope, error) {
	batch, err := contacts.ParseContacts(csv)
	if err != nil {
		return nil, err
	}
	return intent.Sign(p.signer, p.clock, intent.ScopeProcessData, batch)
}

// DigestPhone normalizes and hashes a single phone number and signs the digest
// under intent.ScopePhoneDigest.
func (p *Processor) DigestPhone(phone string) (*PhoneDigestEnvelope, error) {
	digest, err := contacts.DigestPhone(phone)
	if err != nil {
		return nil, err
	}
	return intent.Sign(p.signer, p.clock, intent.ScopePhoneDigest, contacts.PhoneDigest{PhoneHash: digest})
}
