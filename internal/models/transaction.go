package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money entering or leaving a member's balance.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is one of the two known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// TransferCategory is the category recorded on both legs of a transfer.
const TransferCategory = "Transfer"

// Transaction is one recorded income or expense event. Amount is always a
// positive magnitude; the type carries the sign.
type Transaction struct {
	ID              int64           `json:"id"`
	FamilyID        int64           `json:"familyId"`
	MemberID        int64           `json:"memberId"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType TransactionType `json:"transactionType"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	TransactionAt   time.Time       `json:"transactionAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// SignedAmount returns the amount with the sign implied by the type.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.TransactionType == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
