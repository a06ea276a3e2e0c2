package tests

import (
	"testing"

	"evrental/internal/domain"
	"evrental/internal/service"
)

// ──────────────────────────────────────────────
// 2. DEPOSIT RECONCILIATION
// ──────────────────────────────────────────────

func TestReconcile_ChargesWithinDeposit(t *testing.T) {
	t.Parallel()

	// 2,000,000 deposit, 100,000 cleaning fee: refund the difference.
	settlement := service.ReconcileDeposit(2_000_000, []domain.AdditionalCharge{
		{Type: domain.ChargeTypeCleaning, Amount: 100_000},
	})

	if !settlement.RefundPath() {
		t.Fatal("expected refund path")
	}
	if settlement.TotalCharges != 100_000 {
		t.Errorf("expected total charges 100000, got %d", settlement.TotalCharges)
	}
	if settlement.RefundDue != 1_900_000 {
		t.Errorf("expected refund 1900000, got %d", settlement.RefundDue)
	}
	if settlement.AdditionalDue != 0 {
		t.Errorf("expected no additional due, got %d", settlement.AdditionalDue)
	}
}

func TestReconcile_ChargesExceedDeposit(t *testing.T) {
	t.Parallel()

	// 2,000,000 deposit, 2,500,000 repair bill: renter owes the excess.
	settlement := service.ReconcileDeposit(2_000_000, []domain.AdditionalCharge{
		{Type: domain.ChargeTypeRepair, Amount: 2_500_000},
	})

	if settlement.RefundPath() {
		t.Fatal("expected additional-payment path")
	}
	if settlement.AdditionalDue != 500_000 {
		t.Errorf("expected additional due 500000, got %d", settlement.AdditionalDue)
	}
	if settlement.RefundDue != 0 {
		t.Errorf("expected no refund, got %d", settlement.RefundDue)
	}
}

func TestReconcile_NoCharges(t *testing.T) {
	t.Parallel()

	settlement := service.ReconcileDeposit(2_000_000, nil)

	if !settlement.RefundPath() {
		t.Fatal("expected refund path")
	}
	if settlement.RefundDue != 2_000_000 {
		t.Errorf("expected full deposit refund, got %d", settlement.RefundDue)
	}
}

func TestReconcile_ChargesExactlyEqualDeposit(t *testing.T) {
	t.Parallel()

	// Boundary: charges consume the whole deposit. Zero refund still
	// travels the refund path; nothing extra is owed.
	settlement := service.ReconcileDeposit(2_000_000, []domain.AdditionalCharge{
		{Type: domain.ChargeTypeLateFee, Amount: 1_200_000},
		{Type: domain.ChargeTypeCleaning, Amount: 800_000},
	})

	if !settlement.RefundPath() {
		t.Fatal("expected refund path for charges equal to deposit")
	}
	if settlement.RefundDue != 0 {
		t.Errorf("expected zero refund, got %d", settlement.RefundDue)
	}
	if settlement.AdditionalDue != 0 {
		t.Errorf("expected zero additional due, got %d", settlement.AdditionalDue)
	}
}

func TestReconcile_MultipleChargesSum(t *testing.T) {
	t.Parallel()

	settlement := service.ReconcileDeposit(2_000_000, []domain.AdditionalCharge{
		{Type: domain.ChargeTypeLateFee, Amount: 300_000},
		{Type: domain.ChargeTypeCleaning, Amount: 150_000},
		{Type: domain.ChargeTypeOther, Amount: 50_000},
	})

	if settlement.TotalCharges != 500_000 {
		t.Errorf("expected total charges 500000, got %d", settlement.TotalCharges)
	}
	if settlement.RefundDue != 1_500_000 {
		t.Errorf("expected refund 1500000, got %d", settlement.RefundDue)
	}
}

func TestReconcile_ExactlyOnePathApplies(t *testing.T) {
	t.Parallel()

	// Whatever the charges, refund and additional payment are mutually
	// exclusive.
	for _, charges := range []int64{0, 1, 1_999_999, 2_000_000, 2_000_001, 10_000_000} {
		var list []domain.AdditionalCharge
		if charges > 0 {
			list = []domain.AdditionalCharge{{Type: domain.ChargeTypeOther, Amount: charges}}
		}
		settlement := service.ReconcileDeposit(2_000_000, list)

		if settlement.RefundDue > 0 && settlement.AdditionalDue > 0 {
			t.Errorf("charges=%d: both refund %d and additional %d set", charges, settlement.RefundDue, settlement.AdditionalDue)
		}
	}
}
