package auth

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("123456:TEST-BOT-TOKEN")

func loginFields() map[string]string {
	return map[string]string{
		"id":         "7973988177",
		"username":   "monkey",
		"first_name": "Mon",
		"auth_date":  "1700000000",
		"photo_url":  "https://t.me/i/userpic/320/monkey.jpg",
	}
}

func TestCheckString(t *testing.T) {
	fields := map[string]string{
		"username":  "monkey",
		"id":        "42",
		"hash":      "ignored",
		"auth_date": "1700000000",
	}

	assert.Equal(t, "auth_date=1700000000\nid=42\nusername=monkey", CheckString(fields))
}

func TestVerify_ValidSignature(t *testing.T) {
	fields := loginFields()
	signature := Sign(fields, testSecret)

	// The signature field itself is excluded from the payload
	fields[SignatureField] = signature

	assert.True(t, Verify(fields, signature, testSecret))
	// Replaying the same inputs always yields the same answer
	assert.True(t, Verify(fields, signature, testSecret))
}

func TestVerify_Rejects(t *testing.T) {
	fields := loginFields()
	signature := Sign(fields, testSecret)

	tamperedName := loginFields()
	tamperedName["first_name"] = "Admin"

	extraField := loginFields()
	extraField["ref"] = "1"

	tests := []struct {
		name      string
		fields    map[string]string
		signature string
		secret    []byte
	}{
		{name: "tampered field", fields: tamperedName, signature: signature, secret: testSecret},
		{name: "added field", fields: extraField, signature: signature, secret: testSecret},
		{name: "wrong secret", fields: fields, signature: signature, secret: []byte("other")},
		{name: "empty signature", fields: fields, signature: "", secret: testSecret},
		{name: "empty secret", fields: fields, signature: signature, secret: nil},
		{name: "no fields", fields: map[string]string{}, signature: signature, secret: testSecret},
		{name: "uppercase hex", fields: fields, signature: upper(signature), secret: testSecret},
		{name: "not hex", fields: fields, signature: "zz", secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Verify(tt.fields, tt.signature, tt.secret))
		})
	}
}

func TestVerify_EveryFlippedBitIsRejected(t *testing.T) {
	fields := loginFields()
	signature := Sign(fields, testSecret)
	raw := []byte(signature)

	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			forged := make([]byte, len(raw))
			copy(forged, raw)
			forged[i] ^= 1 << bit
			require.False(t, Verify(fields, string(forged), testSecret), "byte %d bit %d", i, bit)
		}
	}
}

func TestCheckFreshness(t *testing.T) {
	now := time.Unix(1700000000, 0)

	at := func(ts time.Time) map[string]string {
		return map[string]string{AuthDateField: strconv.FormatInt(ts.Unix(), 10)}
	}

	tests := []struct {
		name    string
		fields  map[string]string
		maxAge  time.Duration
		wantErr bool
	}{
		{name: "disabled", fields: map[string]string{}, maxAge: 0},
		{name: "fresh", fields: at(now.Add(-time.Hour)), maxAge: 24 * time.Hour},
		{name: "small clock skew", fields: at(now.Add(30 * time.Second)), maxAge: time.Hour},
		{name: "too old", fields: at(now.Add(-25 * time.Hour)), maxAge: 24 * time.Hour, wantErr: true},
		{name: "from the future", fields: at(now.Add(time.Hour)), maxAge: 24 * time.Hour, wantErr: true},
		{name: "missing", fields: map[string]string{}, maxAge: time.Hour, wantErr: true},
		{name: "garbled", fields: map[string]string{AuthDateField: "yesterday"}, maxAge: time.Hour, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFreshness(tt.fields, now, tt.maxAge)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStaleAssertion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func upper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'f' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}
