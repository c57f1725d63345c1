package projection

// Ledger holds installment amounts indexed by [installment][settlement month].
type Ledger [][]float64

// Schedule spreads each month's amount over k equal installments. Installment i
// of origin month m settles in month m+i+startOffset; settlements past the
// horizon are dropped.
func Schedule(origin []float64, k, startOffset int) (Ledger, error) {
	if k <= 0 {
		return nil, &ConfigurationError{Key: "installments", Value: k, Reason: "must be a positive integer"}
	}
	if startOffset != 0 && startOffset != 1 {
		return nil, &ConfigurationError{Key: KeyInstallmentStartOffset, Value: startOffset, Reason: "must be 0 or 1"}
	}
	n := len(origin)
	ledger := make(Ledger, k)
	for i := range ledger {
		ledger[i] = make([]float64, n)
	}
	for m, amount := range origin {
		if amount == 0 {
			continue
		}
		value := amount / float64(k)
		for i := 0; i < k; i++ {
			settle := m + i + startOffset
			if settle >= n {
				break
			}
			ledger[i][settle] += value
		}
	}
	return ledger, nil
}

// Installments returns the number of installment rows.
func (l Ledger) Installments() int {
	return len(l)
}

// MonthTotals sums every installment landing in each settlement month.
func (l Ledger) MonthTotals() []float64 {
	if len(l) == 0 {
		return nil
	}
	totals := make([]float64, len(l[0]))
	for _, row := range l {
		for m, v := range row {
			totals[m] += v
		}
	}
	return totals
}

// Total sums every cell of the ledger.
func (l Ledger) Total() float64 {
	var total float64
	for _, row := range l {
		for _, v := range row {
			total += v
		}
	}
	return total
}
