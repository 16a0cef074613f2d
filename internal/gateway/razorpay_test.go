package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignatureAcceptsValid(t *testing.T) {
	r := NewRazorpay("rzp_test_key", "super-secret")
	sig := Signature("order_abc", "pay_xyz", "super-secret")
	assert.True(t, r.VerifySignature("order_abc", "pay_xyz", sig))
}

func TestVerifySignatureRejectsTamperedPair(t *testing.T) {
	r := NewRazorpay("rzp_test_key", "super-secret")

	// Signature computed over a different order/payment pair must not verify.
	sig := Signature("order_abc", "pay_other", "super-secret")
	assert.False(t, r.VerifySignature("order_abc", "pay_xyz", sig))
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	r := NewRazorpay("rzp_test_key", "super-secret")
	sig := Signature("order_abc", "pay_xyz", "guessed-secret")
	assert.False(t, r.VerifySignature("order_abc", "pay_xyz", sig))
}

func TestPaymentCaptured(t *testing.T) {
	assert.True(t, Payment{Status: StatusCaptured}.Captured())
	assert.False(t, Payment{Status: "authorized"}.Captured())
	assert.False(t, Payment{Status: "failed"}.Captured())
}
