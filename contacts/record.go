package contacts

import (
	"github.com/fardream/go-bcs/bcs"
)

// ContactRecord is one validated CSV row. The plaintext phone number is not
// retained; only its digest is.
type ContactRecord struct {
	Name      string `json:"name"`
	PhoneHash Digest `json:"phone_hash"`
	Email     string `json:"email"`
	Other     string `json:"other"`
}

// bcsContactRecord is the signed layout of a record:
// { name: String, phone_hash: vector<u8>, email: String, other: String }.
// The digest is a length-prefixed vector, not a fixed array.
type bcsContactRecord struct {
	Name      string
	PhoneHash []byte
	Email     string
	Other     string
}

func (r ContactRecord) bcsValue() bcsContactRecord {
	return bcsContactRecord{
		Name:      r.Name,
		PhoneHash: r.PhoneHash[:],
		Email:     r.Email,
		Other:     r.Other,
	}
}

// ContactBatch is the payload the enclave signs for a CSV submission.
// A batch returned by ParseContacts holds between 1 and MaxRecords records in
// input order.
type ContactBatch struct {
	Contacts []ContactRecord `json:"contacts"`
}

// MarshalBCS encodes the batch as vector<ContactRecord>.
func (b ContactBatch) MarshalBCS() ([]byte, error) {
	records := make([]bcsContactRecord, len(b.Contacts))
	for i, c := range b.Contacts {
		records[i] = c.bcsValue()
	}
	return bcs.Marshal(records)
}

// PhoneDigest is the payload signed for a single-number digest lookup.
type PhoneDigest struct {
	PhoneHash Digest `json:"phone_hash"`
}

func (p PhoneDigest) MarshalBCS() ([]byte, error) {
	return bcs.Marshal(struct {
		PhoneHash []byte
	}{PhoneHash: p.PhoneHash[:]})
}
