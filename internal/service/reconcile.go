package service

import "evrental/internal/domain"

// Settlement is the outcome of comparing the deposit against the
// additional charges recorded at return. Exactly one of RefundDue and
// AdditionalDue is meaningful: RefundDue when charges fit inside the
// deposit (may equal the full deposit), AdditionalDue when they exceed it.
type Settlement struct {
	TotalCharges  int64
	RefundDue     int64
	AdditionalDue int64
}

// RefundPath reports whether the deposit covers the charges.
func (s Settlement) RefundPath() bool {
	return s.AdditionalDue == 0
}

// ReconcileDeposit offsets the additional charges against the deposit.
func ReconcileDeposit(deposit int64, charges []domain.AdditionalCharge) Settlement {
	var total int64
	for _, c := range charges {
		total += c.Amount
	}

	if total <= deposit {
		return Settlement{TotalCharges: total, RefundDue: deposit - total}
	}
	return Settlement{TotalCharges: total, AdditionalDue: total - deposit}
}

// validateCharges checks the charges supplied with a return inspection.
func validateCharges(charges []domain.AdditionalCharge) error {
	for _, c := range charges {
		if c.Amount <= 0 {
			return ErrInvalidChargeAmount
		}
	}
	return nil
}
