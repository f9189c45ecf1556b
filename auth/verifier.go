// Package auth verifies identity assertions signed by the chat platform's
// login widget.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SignatureField is the form field carrying the assertion's signature.
// It is never part of the signed payload.
const SignatureField = "hash"

// AuthDateField carries the unix time at which the assertion was issued
const AuthDateField = "auth_date"

// maxClockSkew bounds how far in the future auth_date may be
const maxClockSkew = time.Minute

var ErrStaleAssertion = errors.New("login assertion is stale")

// Verify reports whether claimedSignature is the HMAC-SHA256 of the canonical
// check string of fields, keyed with SHA-256(secret). It never panics and
// returns false for any malformed input.
func Verify(fields map[string]string, claimedSignature string, secret []byte) bool {
	if claimedSignature == "" || len(secret) == 0 || len(fields) == 0 {
		return false
	}

	expected := Sign(fields, secret)
	return hmac.Equal([]byte(expected), []byte(claimedSignature))
}

// Sign computes the hex signature of fields the way the platform does
func Sign(fields map[string]string, secret []byte) string {
	key := sha256.Sum256(secret)
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(CheckString(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

// CheckString builds the canonical payload: every field except the signature,
// sorted by name, rendered as key=value and joined with newlines.
func CheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == SignatureField {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+fields[key])
	}
	return strings.Join(pairs, "\n")
}

// CheckFreshness rejects assertions whose auth_date is missing, malformed,
// older than maxAge or too far in the future. A zero maxAge disables the check.
func CheckFreshness(fields map[string]string, now time.Time, maxAge time.Duration) error {
	if maxAge <= 0 {
		return nil
	}

	raw, ok := fields[AuthDateField]
	if !ok || raw == "" {
		return fmt.Errorf("%w: missing %s", ErrStaleAssertion, AuthDateField)
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid %s %q", ErrStaleAssertion, AuthDateField, raw)
	}

	issuedAt := time.Unix(seconds, 0)
	if issuedAt.After(now.Add(maxClockSkew)) {
		return fmt.Errorf("%w: issued in the future", ErrStaleAssertion)
	}
	if now.Sub(issuedAt) > maxAge {
		return fmt.Errorf("%w: issued %s ago", ErrStaleAssertion, now.Sub(issuedAt).Truncate(time.Second))
	}

	return nil
}
