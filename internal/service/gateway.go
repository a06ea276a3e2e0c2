package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"evrental/internal/domain"
)

// Gateway parameter and response-code constants (VNPay-style protocol).
const (
	gatewayVersion    = "2.1.0"
	gatewayCommandPay = "pay"
	gatewayCurrency   = "VND"
	gatewayLocale     = "vn"

	signatureField     = "vnp_SecureHash"
	signatureTypeField = "vnp_SecureHashType"

	// additionalPaymentSuffix marks a transaction reference as belonging
	// to the additional-payment flow rather than the initial rental payment.
	additionalPaymentSuffix = "-A"

	responseCodeSuccess  = "00"
	responseCodeNotFound = "01"
)

// CallbackOutcome classifies a verified gateway callback.
type CallbackOutcome string

const (
	CallbackOutcomeSuccess  CallbackOutcome = "SUCCESS"
	CallbackOutcomeNotFound CallbackOutcome = "NOT_FOUND"
	CallbackOutcomeFailed   CallbackOutcome = "FAILED"
)

// CallbackResult is the decoded, signature-verified content of a
// gateway callback.
type CallbackResult struct {
	Outcome           CallbackOutcome
	ResponseCode      string
	BookingNumber     string
	AdditionalPayment bool
	Amount            int64 // whole VND
	TransactionNo     string
	BankCode          string
	PayDate           string
}

// GatewayConfig holds the shared-secret credentials and endpoints for
// the payment gateway.
type GatewayConfig struct {
	MerchantCode string
	HashSecret   string
	PayURL       string
	ReturnURL    string
}

// GatewayService builds outbound signed payment requests and verifies
// inbound signed callbacks. It holds no booking state; idempotency is
// enforced by the booking state machine guards.
type GatewayService struct {
	cfg GatewayConfig

	// Now is the clock used for request timestamps. Overridable in tests.
	Now func() time.Time
}

// NewGatewayService creates a new GatewayService.
func NewGatewayService(cfg GatewayConfig) *GatewayService {
	return &GatewayService{
		cfg: cfg,
		Now: time.Now,
	}
}

// BuildPaymentURL produces the signed redirect URL for the initial
// rental payment (base price + deposit).
func (s *GatewayService) BuildPaymentURL(booking *domain.Booking, clientIP string) (string, error) {
	return s.buildURL(booking.Number, booking.TotalAmount, "rental "+booking.Number, clientIP)
}

// BuildAdditionalPaymentURL produces the signed redirect URL for the
// additional payment owed when return charges exceed the deposit.
func (s *GatewayService) BuildAdditionalPaymentURL(booking *domain.Booking, clientIP string) (string, error) {
	ref := booking.Number + additionalPaymentSuffix
	return s.buildURL(ref, booking.AdditionalPayment.Amount, "additional charges "+booking.Number, clientIP)
}

func (s *GatewayService) buildURL(txnRef string, amount int64, orderInfo, clientIP string) (string, error) {
	if s.cfg.PayURL == "" || s.cfg.HashSecret == "" {
		return "", ErrGatewayUnavailable
	}

	params := map[string]string{
		"vnp_Version":    gatewayVersion,
		"vnp_Command":    gatewayCommandPay,
		"vnp_TmnCode":    s.cfg.MerchantCode,
		"vnp_Amount":     strconv.FormatInt(amount*100, 10), // gateway expects minor units
		"vnp_CurrCode":   gatewayCurrency,
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     gatewayLocale,
		"vnp_ReturnUrl":  s.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": s.Now().Format("20060102150405"),
	}

	canonical := canonicalize(params)
	signature := s.sign(canonical)

	return s.cfg.PayURL + "?" + canonical + "&" + signatureField + "=" + signature, nil
}

// VerifyCallback checks the signature over a callback parameter map.
// The signature fields themselves are excluded from the canonical
// string; the comparison is constant-time.
func (s *GatewayService) VerifyCallback(params map[string]string) error {
	received, ok := params[signatureField]
	if !ok || received == "" {
		return ErrSignatureMismatch
	}

	unsigned := make(map[string]string, len(params))
	for k, v := range params {
		if k == signatureField || k == signatureTypeField {
			continue
		}
		unsigned[k] = v
	}

	expected := s.sign(canonicalize(unsigned))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(received))) {
		return ErrSignatureMismatch
	}

	return nil
}

// ParseCallback verifies and decodes a gateway callback. The booking is
// not touched here; the result is fed into the booking state machine.
func (s *GatewayService) ParseCallback(params map[string]string) (*CallbackResult, error) {
	if err := s.VerifyCallback(params); err != nil {
		return nil, err
	}

	amountMinor, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil {
		return nil, ErrUnknownTransactionRef
	}

	txnRef := params["vnp_TxnRef"]
	number := strings.TrimSuffix(txnRef, additionalPaymentSuffix)

	result := &CallbackResult{
		ResponseCode:      params["vnp_ResponseCode"],
		BookingNumber:     number,
		AdditionalPayment: number != txnRef,
		Amount:            amountMinor / 100,
		TransactionNo:     params["vnp_TransactionNo"],
		BankCode:          params["vnp_BankCode"],
		PayDate:           params["vnp_PayDate"],
	}

	switch result.ResponseCode {
	case responseCodeSuccess:
		result.Outcome = CallbackOutcomeSuccess
	case responseCodeNotFound:
		result.Outcome = CallbackOutcomeNotFound
	default:
		result.Outcome = CallbackOutcomeFailed
	}

	return result, nil
}

// canonicalize sorts parameter keys lexicographically and joins
// query-escaped key=value pairs with &. Empty values are skipped, per
// the gateway's signing convention.
func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
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
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

func (s *GatewayService) sign(canonical string) string {
	mac := hmac.New(sha512.New, []byte(s.cfg.HashSecret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
