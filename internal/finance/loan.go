package finance

import "math"

// loan amortizes a principal with level annual payments
type loan struct {
	balance float64
	rate    float64
	payment float64
	term    int
	year    int
}

func newLoan(principal, rate float64, term int) *loan {
	return &loan{
		balance: principal,
		rate:    rate,
		payment: LevelPayment(principal, rate, term),
		term:    term,
	}
}

// next returns the payment and its interest part for the following year.
// Both are zero once the term has passed.
func (l *loan) next() (payment, interest float64) {
	l.year++
	if l.year > l.term || l.balance <= 0 {
		return 0, 0
	}

	interest = l.balance * l.rate
	payment = l.payment
	if l.year == l.term {
		// last payment clears the rounding residue
		payment = l.balance + interest
	}
	l.balance -= payment - interest
	return payment, interest
}

// LevelPayment is the standard annuity payment.
//
//	A = P × r(1+r)^n / ((1+r)^n − 1)
//
// At 0% interest it is P / n.
func LevelPayment(principal, rate float64, termYears int) float64 {
	if termYears <= 0 || principal <= 0 {
		return 0
	}
	if rate == 0 {
		return principal / float64(termYears)
	}
	n := float64(termYears)
	factor := math.Pow(1+rate, n)
	return principal * rate * factor / (factor - 1)
}
