package core

import "github.com/shopspring/decimal"

// InstallmentPlan is one generated installment before it is persisted.
type InstallmentPlan struct {
	Number int
	Amount decimal.Decimal
	Period Period
}

// GenerateInstallments splits total into count installments.
//
// Every installment but the last gets total/count rounded half-up to cents.
// The last one absorbs the rounding residual, so the amounts always add up to
// total exactly. Inputs must already have passed PurchaseInput.Validate.
func GenerateInstallments(cycle BillingCycle, purchaseDate Date, total decimal.Decimal, count int) []InstallmentPlan {
	if count < 1 {
		return nil
	}
	n := decimal.NewFromInt(int64(count))
	base := total.DivRound(n, 2)
	last := base.Add(total.Sub(base.Mul(n))).Round(2)

	plans := make([]InstallmentPlan, 0, count)
	for k := 1; k <= count; k++ {
		amount := base
		if k == count {
			amount = last
		}
		plans = append(plans, InstallmentPlan{
			Number: k,
			Amount: amount,
			Period: cycle.InstallmentPeriod(purchaseDate, k),
		})
	}
	return plans
}
