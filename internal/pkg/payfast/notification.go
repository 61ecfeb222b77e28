package payfast

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Gateway payment_status values carried by an ITN.
const (
	StatusComplete = "COMPLETE"
	StatusFailed   = "FAILED"
)

// Notification is a parsed ITN payload. The raw bytes are retained because
// the confirmation round-trip and the audit record both need them verbatim.
type Notification struct {
	params map[string]string
	raw    []byte
}

// ParseNotification decodes a form-encoded ITN body. Repeated keys keep
// their first value, matching how the gateway serializes.
func ParseNotification(raw []byte) (*Notification, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("malformed notification body: %w", err)
	}

	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	return &Notification{params: params, raw: raw}, nil
}

// Raw returns the exact bytes received from the gateway.
func (n *Notification) Raw() []byte { return n.raw }

// Params returns the decoded parameter set, signature field included.
func (n *Notification) Params() map[string]string { return n.params }

func (n *Notification) Get(key string) string { return n.params[key] }

func (n *Notification) Signature() string { return n.params[SignatureField] }

// VerifySignature recomputes the MD5 over the notification parameters and
// compares it against the signature the gateway sent.
func (n *Notification) VerifySignature(passphrase string) bool {
	return Verify(n.params, n.Signature(), passphrase)
}

func (n *Notification) MerchantID() string { return n.params["merchant_id"] }

// GatewayTransactionID is PayFast's pf_payment_id, the idempotency key.
func (n *Notification) GatewayTransactionID() string { return n.params["pf_payment_id"] }

// MerchantReference is our m_payment_id assigned at checkout.
func (n *Notification) MerchantReference() string { return n.params["m_payment_id"] }

func (n *Notification) PaymentStatus() string { return n.params["payment_status"] }

func (n *Notification) AmountGrossCents() (int64, error) {
	return ParseAmountCents(n.params["amount_gross"])
}

func (n *Notification) AmountFeeCents() (int64, error) {
	return ParseAmountCents(n.params["amount_fee"])
}

func (n *Notification) AmountNetCents() (int64, error) {
	return ParseAmountCents(n.params["amount_net"])
}

// Correlation fields set by us at checkout: custom_str1..3 carry the user,
// plan and subscription identifiers.

func (n *Notification) UserID() (int64, error) {
	return strconv.ParseInt(n.params["custom_str1"], 10, 64)
}

func (n *Notification) PlanID() (int64, error) {
	return strconv.ParseInt(n.params["custom_str2"], 10, 64)
}

func (n *Notification) SubscriptionID() (int64, error) {
	return strconv.ParseInt(n.params["custom_str3"], 10, 64)
}

// ParseAmountCents converts a decimal currency string ("250.00") to minor
// units without going through floating point. Fees may be reported negative.
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimals", s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	cents := units*100 + frac
	if negative {
		cents = -cents
	}
	return cents, nil
}
