/*
Package contacts turns an untrusted CSV blob into a bounded, validated batch of
contact records whose phone numbers are replaced by a one-way digest.

# Accepted format

Each non-blank line is a comma separated row:

	name, phone[, email[, other...]]

There is no quoting or escaping: a comma always separates fields. The first
non-blank line is dropped as a header when its first field contains "name" or
"contact" (case-insensitive). Columns after the third are trimmed, empty ones
dropped, and the rest re-joined with commas into Other.

# Validation

Parsing is fail-fast. The first offending row aborts the whole batch with a
*ParseError, because the enclave signs the batch as a single unit and never
attests to a partial submission. At most MaxRecords records are accepted.

# Phone digests

Phone numbers are normalized by keeping ASCII digits only, so "+1 (555) 123-4567"
and "15551234567" produce the same digest. The digest is unkeyed BLAKE2b-256.
The phone number space is small enough to enumerate, so the digest is a stable
fingerprint for matching, not a confidentiality guarantee.
*/
package contacts
