// Package account defines the cardholder account snapshot the assistant
// reads during a chat session.
package account

import "errors"

var (
	// ErrCreditExceeded indicates available credit above the credit limit.
	ErrCreditExceeded = errors.New("available credit exceeds credit limit")
	// ErrNegativeBill indicates a negative outstanding bill amount.
	ErrNegativeBill = errors.New("bill amount is negative")
)

// Bill is the outstanding statement amount for a billing month.
type Bill struct {
	Amount int64  `json:"amount"`
	Month  string `json:"month"`
}

// Transaction is a single card transaction with a category hint.
type Transaction struct {
	Date     string `json:"date"`
	Merchant string `json:"merchant"`
	Amount   int64  `json:"amount"`
	Category string `json:"category,omitempty"`
}

// Account is the session-scoped financial snapshot for a cardholder.
// It is read-only during a chat session except for the bill amount,
// which is zeroed once a payment is acknowledged.
type Account struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CardLast4 string `json:"card_last4"`

	CreditLimit     int64 `json:"credit_limit"`
	AvailableCredit int64 `json:"available_credit"`
	Bill            Bill  `json:"bill"`

	Transactions []Transaction `json:"transactions"`
}

// Validate checks the account invariants.
func (a *Account) Validate() error {
	if a.AvailableCredit > a.CreditLimit {
		return ErrCreditExceeded
	}
	if a.Bill.Amount < 0 {
		return ErrNegativeBill
	}
	return nil
}

// UsedCredit returns the portion of the credit limit currently consumed.
func (a *Account) UsedCredit() int64 {
	return a.CreditLimit - a.AvailableCredit
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}

	copied := *a
	if a.Transactions != nil {
		copied.Transactions = make([]Transaction, len(a.Transactions))
		copy(copied.Transactions, a.Transactions)
	}
	return &copied
}
