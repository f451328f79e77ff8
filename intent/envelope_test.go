package intent

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ruteri/tee-contact-attestor/contacts"
	"github.com/ruteri/tee-contact-attestor/kms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.UnixMilli(1700000000000)

func testSigner(t *testing.T) *kms.Ed25519Key {
	t.Helper()
	seed := bytes.Repeat([]byte{0x42}, 32)
	key, err := kms.NewEd25519KeyFromSeed(seed)
	require.NoError(t, err)
	return key
}

func testBatch(t *testing.T, csv string) contacts.ContactBatch {
	t.Helper()
	batch, err := contacts.ParseContacts(csv)
	require.NoError(t, err)
	return batch
}

func TestMessage_CanonicalLayout(t *testing.T) {
	batch := testBatch(t, "Alice,1")
	msg, err := Message(ScopeProcessData, 1700000000000, batch)
	require.NoError(t, err)

	var expected bytes.Buffer
	expected.WriteByte(0x00) // intent
	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, 1700000000000)
	expected.Write(ts)
	expected.WriteByte(0x01) // one contact
	expected.WriteByte(0x05)
	expected.WriteString("Alice")
	expected.WriteByte(0x20)
	hash := contacts.HashPhone("1")
	expected.Write(hash[:])
	expected.WriteByte(0x00) // email
	expected.WriteByte(0x00) // other

	assert.Equal(t, expected.Bytes(), msg)
	assert.Equal(t, []byte{0x00, 0x00, 0x68, 0xe5, 0xcf, 0x8b, 0x01, 0x00, 0x00}, msg[:9])
}

func TestMessage_Deterministic(t *testing.T) {
	a, err := Message(ScopeProcessData, 42, testBatch(t, "Alice,1,a@x,n1,n2\nBob,2"))
	require.NoError(t, err)
	b, err := Message(ScopeProcessData, 42, testBatch(t, "Alice,1,a@x,n1,n2\nBob,2"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Message(ScopePhoneDigest, 42, testBatch(t, "Alice,1,a@x,n1,n2\nBob,2"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

// Vectors produced by an independent BCS encoder (intent u8, timestamp u64 LE,
// ULEB128-prefixed vectors and strings).
func TestMessage_GoldenVectors(t *testing.T) {
	batchMsg, err := Message(ScopeProcessData, 1700000000000, testBatch(t, "Alice,1"))
	require.NoError(t, err)
	assert.Equal(t,
		"000068e5cf8b0100000105416c6963652092cdf578c47085a5992256f0dcf97d0b19f1f1c9de4d5fe30c3ace6191b6e5db0000",
		hex.EncodeToString(batchMsg))

	digestMsg, err := Message(ScopePhoneDigest, 1700000000000, contacts.PhoneDigest{PhoneHash: contacts.HashPhone("15551234567")})
	require.NoError(t, err)
	assert.Equal(t,
		"010068e5cf8b010000205abd0a287b441fe24f52185f705350dfddba2266793dc805314f7dd53045c678",
		hex.EncodeToString(digestMsg))
}

func TestSignAndVerify(t *testing.T) {
	signer := testSigner(t)
	batch := testBatch(t, "Name,Phone\nAlice,+1 (555) 123-4567,a@example.com\nBob,555 0000")

	env, err := Sign(signer, FixedClock(testTime), ScopeProcessData, batch)
	require.NoError(t, err)

	assert.Equal(t, ScopeProcessData, env.Scope)
	assert.Equal(t, uint64(1700000000000), env.TimestampMs)
	assert.Equal(t, kms.SchemeEd25519, env.SignatureScheme)
	assert.Equal(t, signer.PublicKey(), []byte(env.PublicKey))
	assert.Len(t, env.Payload.Contacts, 2)

	require.NoError(t, Verify(env, VerifyOptions{Scope: ScopeProcessData}))
	require.NoError(t, Verify(env, VerifyOptions{Scope: ScopeProcessData, PublicKey: signer.PublicKey()}))
	require.NoError(t, Verify(env, VerifyOptions{Scope: ScopeProcessData, MaxAge: time.Minute, Now: testTime.Add(30 * time.Second)}))
}

func TestVerify_DetectsTampering(t *testing.T) {
	signer := testSigner(t)
	env, err := Sign(signer, FixedClock(testTime), ScopeProcessData, testBatch(t, "Alice,1,a@example.com\nBob,2"))
	require.NoError(t, err)

	tamperedHash := *env
	tamperedHash.Payload = contacts.ContactBatch{Contacts: append([]contacts.ContactRecord{}, env.Payload.Contacts...)}
	tamperedHash.Payload.Contacts[0].PhoneHash[0] ^= 0x01
	assert.ErrorIs(t, Verify(&tamperedHash, VerifyOptions{Scope: ScopeProcessData}), kms.ErrInvalidSignature)

	tamperedName := *env
	tamperedName.Payload = contacts.ContactBatch{Contacts: append([]contacts.ContactRecord{}, env.Payload.Contacts...)}
	tamperedName.Payload.Contacts[1].Name = "Mallory"
	assert.ErrorIs(t, Verify(&tamperedName, VerifyOptions{Scope: ScopeProcessData}), kms.ErrInvalidSignature)

	dropped := *env
	dropped.Payload = contacts.ContactBatch{Contacts: env.Payload.Contacts[:1]}
	assert.ErrorIs(t, Verify(&dropped, VerifyOptions{Scope: ScopeProcessData}), kms.ErrInvalidSignature)

	retimed := *env
	retimed.TimestampMs++
	assert.ErrorIs(t, Verify(&retimed, VerifyOptions{Scope: ScopeProcessData}), kms.ErrInvalidSignature)

	rescoped := *env
	rescoped.Scope = ScopePhoneDigest
	assert.ErrorIs(t, Verify(&rescoped, VerifyOptions{Scope: ScopePhoneDigest}), kms.ErrInvalidSignature)
}

func TestVerify_Policy(t *testing.T) {
	signer := testSigner(t)
	env, err := Sign(signer, FixedClock(testTime), ScopeProcessData, testBatch(t, "Alice,1"))
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(env, VerifyOptions{Scope: ScopePhoneDigest}), ErrScopeMismatch)

	other, err := kms.NewEd25519KeyFromSeed(bytes.Repeat([]byte{0x01}, 32))
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(env, VerifyOptions{Scope: ScopeProcessData, PublicKey: other.PublicKey()}), ErrKeyMismatch)

	assert.ErrorIs(t, Verify(env, VerifyOptions{Scope: ScopeProcessData, MaxAge: time.Minute, Now: testTime.Add(time.Hour)}), ErrStale)
	assert.ErrorIs(t, Verify(env, VerifyOptions{Scope: ScopeProcessData, MaxAge: time.Minute, Now: testTime.Add(-time.Hour)}), ErrStale)
}

func TestSign_AllSchemes(t *testing.T) {
	batch := testBatch(t, "Alice,1")
	for _, scheme := range kms.SupportedSchemes {
		t.Run(scheme, func(t *testing.T) {
			signer, err := kms.NewEphemeralKey(scheme)
			require.NoError(t, err)

			env, err := Sign(signer, SystemClock{}, ScopeProcessData, batch)
			require.NoError(t, err)
			require.NoError(t, Verify(env, VerifyOptions{Scope: ScopeProcessData, MaxAge: time.Minute}))
		})
	}
}

func TestSign_ClockBeforeEpoch(t *testing.T) {
	_, err := Sign(testSigner(t), FixedClock(time.Unix(-10, 0)), ScopeProcessData, testBatch(t, "Alice,1"))
	require.Error(t, err)

	var clockErr *ClockError
	require.True(t, errors.As(err, &clockErr))
	assert.Equal(t, time.Unix(-10, 0), clockErr.Time)
}

func TestSignedEnvelope_JSONRoundTrip(t *testing.T) {
	signer := testSigner(t)
	env, err := Sign(signer, FixedClock(testTime), ScopeProcessData, testBatch(t, "Alice,1,a@example.com,x"))
	require.NoError(t, err)

	out, err := json.Marshal(env)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, "process_data", raw["scope"])
	assert.Equal(t, float64(1700000000000), raw["timestamp"])
	assert.NotContains(t, raw, "timestamp_ms")
	assert.Equal(t, "ed25519", raw["signature_scheme"])
	assert.IsType(t, "", raw["signature"])
	assert.IsType(t, "", raw["public_key"])

	var decoded SignedEnvelope[contacts.ContactBatch]
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, *env, decoded)
	require.NoError(t, Verify(&decoded, VerifyOptions{Scope: ScopeProcessData}))
}

func TestScope_Text(t *testing.T) {
	s, err := ParseScope("phone_digest")
	require.NoError(t, err)
	assert.Equal(t, ScopePhoneDigest, s)

	_, err = ParseScope("nope")
	assert.Error(t, err)

	_, err = Scope(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "scope(9)", Scope(9).String())
}
