package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignatureField is the parameter name that carries the digest itself and is
// always excluded from signing.
const SignatureField = "signature"

// Sign computes the PayFast MD5 parameter signature. Parameters are
// serialized in ascending key order with quote_plus-style URL encoding
// (space becomes '+', percent escapes use uppercase hex). Empty values and
// the signature field are omitted, so an absent key and an empty key sign
// identically. When a passphrase is configured it is appended as a final
// passphrase parameter.
func Sign(params map[string]string, passphrase string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == SignatureField || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}

	if passphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(url.QueryEscape(passphrase))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature over params and compares it against the
// caller-supplied digest in constant time. A mismatch is an expected
// adversarial case, so Verify reports false rather than erroring.
func Verify(params map[string]string, provided, passphrase string) bool {
	if provided == "" {
		return false
	}
	expected := Sign(params, passphrase)
	if len(expected) != len(provided) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
