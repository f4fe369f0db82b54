// Package ledger derives a customer's open credit entries from the
// transaction history.
package ledger

import (
	"github.com/shopspring/decimal"

	"myshop/backend/internal/domain"
)

// OpenCredits returns the Credit_Sale entries recorded after the most recent
// Payment. history must be ordered oldest first. Settlement always clears the
// full balance, so everything before the last payment is closed.
func OpenCredits(balance decimal.Decimal, history []domain.CustomerTransaction) []domain.CustomerTransaction {
	open := []domain.CustomerTransaction{}
	if !balance.IsPositive() {
		return open
	}

	lastPayment := -1
	for i, tx := range history {
		if tx.TransactionType == domain.TransactionPayment {
			lastPayment = i
		}
	}
	for _, tx := range history[lastPayment+1:] {
		if tx.TransactionType == domain.TransactionCreditSale {
			open = append(open, tx)
		}
	}
	return open
}
