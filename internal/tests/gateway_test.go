package tests

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"evrental/internal/domain"
	"evrental/internal/service"
)

// ──────────────────────────────────────────────
// 5. PAYMENT GATEWAY SIGNING
// ──────────────────────────────────────────────

const testHashSecret = "test-hash-secret"

func newGatewayService() *service.GatewayService {
	s := service.NewGatewayService(service.GatewayConfig{
		MerchantCode: "EVRENTAL01",
		HashSecret:   testHashSecret,
		PayURL:       "https://sandbox.gateway.example/paymentv2/vpcpay.html",
		ReturnURL:    "https://app.example.com/payments/return",
	})
	s.Now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return s
}

// signTestParams reproduces the gateway's signing convention: sorted
// keys, empty values skipped, query-escaped pairs, HMAC-SHA512 hex.
func signTestParams(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

func successCallbackParams(txnRef string, amountVND int64) map[string]string {
	params := map[string]string{
		"vnp_TmnCode":       "EVRENTAL01",
		"vnp_TxnRef":        txnRef,
		"vnp_Amount":        "0",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14422574",
		"vnp_BankCode":      "NCB",
		"vnp_PayDate":       "20260314094512",
	}
	params["vnp_Amount"] = strconv.FormatInt(amountVND*100, 10)
	params["vnp_SecureHash"] = signTestParams(testHashSecret, params)
	return params
}

func TestGateway_PaymentURLIsSigned(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	booking := &domain.Booking{Number: "EV-260314-0001", TotalAmount: 2_150_000}

	paymentURL, err := gateway.BuildPaymentURL(booking, "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := url.Parse(paymentURL)
	if err != nil {
		t.Fatalf("unparseable payment URL: %v", err)
	}
	query := parsed.Query()

	// Amount travels in minor units.
	if got := query.Get("vnp_Amount"); got != "215000000" {
		t.Errorf("expected amount 215000000, got %s", got)
	}
	if got := query.Get("vnp_TxnRef"); got != "EV-260314-0001" {
		t.Errorf("expected txn ref EV-260314-0001, got %s", got)
	}

	// The signature must cover every parameter except itself.
	params := make(map[string]string, len(query))
	for k := range query {
		params[k] = query.Get(k)
	}
	expected := signTestParams(testHashSecret, params)
	if got := query.Get("vnp_SecureHash"); got != expected {
		t.Errorf("signature mismatch:\n got %s\nwant %s", got, expected)
	}
}

func TestGateway_AdditionalPaymentURLUsesSuffixedRef(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	booking := &domain.Booking{
		Number:            "EV-260314-0001",
		AdditionalPayment: domain.AdditionalPayment{Amount: 500_000},
	}

	paymentURL, err := gateway.BuildAdditionalPaymentURL(booking, "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, _ := url.Parse(paymentURL)
	if got := parsed.Query().Get("vnp_TxnRef"); got != "EV-260314-0001-A" {
		t.Errorf("expected suffixed txn ref, got %s", got)
	}
	if got := parsed.Query().Get("vnp_Amount"); got != "50000000" {
		t.Errorf("expected amount 50000000, got %s", got)
	}
}

func TestGateway_ParseCallbackRoundTrip(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	params := successCallbackParams("EV-260314-0001", 2_150_000)

	result, err := gateway.ParseCallback(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != service.CallbackOutcomeSuccess {
		t.Errorf("expected SUCCESS, got %s", result.Outcome)
	}
	if result.BookingNumber != "EV-260314-0001" {
		t.Errorf("expected booking number EV-260314-0001, got %s", result.BookingNumber)
	}
	if result.AdditionalPayment {
		t.Error("initial payment misclassified as additional")
	}
	if result.Amount != 2_150_000 {
		t.Errorf("expected amount 2150000 VND, got %d", result.Amount)
	}
	if result.TransactionNo != "14422574" {
		t.Errorf("expected transaction 14422574, got %s", result.TransactionNo)
	}
}

func TestGateway_ParseCallbackAdditionalPaymentSuffix(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	params := successCallbackParams("EV-260314-0001-A", 500_000)

	result, err := gateway.ParseCallback(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.AdditionalPayment {
		t.Error("suffixed txn ref should classify as additional payment")
	}
	if result.BookingNumber != "EV-260314-0001" {
		t.Errorf("suffix should be stripped from booking number, got %s", result.BookingNumber)
	}
}

func TestGateway_TamperedAmountRejected(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	params := successCallbackParams("EV-260314-0001", 2_150_000)

	// Signed for 2,150,000 but the amount field says less.
	params["vnp_Amount"] = "100000"

	_, err := gateway.ParseCallback(params)
	if !errors.Is(err, service.ErrSignatureMismatch) {
		t.Errorf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestGateway_MissingSignatureRejected(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	params := successCallbackParams("EV-260314-0001", 2_150_000)
	delete(params, "vnp_SecureHash")

	_, err := gateway.ParseCallback(params)
	if !errors.Is(err, service.ErrSignatureMismatch) {
		t.Errorf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestGateway_WrongSecretRejected(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	params := successCallbackParams("EV-260314-0001", 2_150_000)
	params["vnp_SecureHash"] = signTestParams("some-other-secret", params)

	_, err := gateway.ParseCallback(params)
	if !errors.Is(err, service.ErrSignatureMismatch) {
		t.Errorf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestGateway_FailureResponseCodeClassified(t *testing.T) {
	t.Parallel()

	gateway := newGatewayService()
	params := successCallbackParams("EV-260314-0001", 2_150_000)
	params["vnp_ResponseCode"] = "24" // customer cancelled at the gateway
	params["vnp_SecureHash"] = signTestParams(testHashSecret, params)

	result, err := gateway.ParseCallback(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != service.CallbackOutcomeFailed {
		t.Errorf("expected FAILED, got %s", result.Outcome)
	}
}

func TestGateway_UnconfiguredSecretRefusesToBuildURL(t *testing.T) {
	t.Parallel()

	gateway := service.NewGatewayService(service.GatewayConfig{})
	booking := &domain.Booking{Number: "EV-260314-0001", TotalAmount: 2_150_000}

	_, err := gateway.BuildPaymentURL(booking, "203.0.113.7")
	if !errors.Is(err, service.ErrGatewayUnavailable) {
		t.Errorf("expected ErrGatewayUnavailable, got %v", err)
	}
}
