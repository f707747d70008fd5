// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that no account matches the given credentials.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientFunds indicates that the account balance does not cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount indicates that the amount is not a number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNonPositiveAmount indicates a zero or negative amount.
	ErrNonPositiveAmount = errors.New("amount must be positive")
	// ErrInvalidCategory indicates an unknown account category.
	ErrInvalidCategory = errors.New("invalid account category")
	// ErrSameAccount indicates a transfer where sender and receiver are the same account.
	ErrSameAccount = errors.New("sender and receiver are the same account")
	// ErrIDSpaceExhausted indicates that no free account number was found.
	ErrIDSpaceExhausted = errors.New("cannot generate unique account number")
	// ErrCorruptRecord indicates a malformed line in the record store.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrStorage indicates an I/O failure of the record store.
	ErrStorage = errors.New("storage failure")
)

// Category tags an account. It is fixed at creation.
type Category string

// Supported account categories.
const (
	Personal Category = "Personal"
	Business Category = "Business"
)

// Categories holds all the supported categories.
var Categories = []Category{
	Personal,
	Business,
}

// IsValid returns true if the category is supported.
func (c Category) IsValid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}

	return false
}

// ParseCategory converts s into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}

	return c, nil
}

// amountPattern accepts plain decimal notation with at most 20 integer and 8 fraction digits.
var amountPattern = regexp.MustCompile(`^[-+]?[0-9]{1,20}(\.[0-9]{1,8})?$`)

// ParseAmount converts user input into an amount.
//
// Exponent notation is rejected, so a short input cannot expand into a huge number.
// The sign is kept: positivity is checked by the operations.
func ParseAmount(s string) (decimal.Decimal, error) {
	if !amountPattern.MatchString(s) {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	return amount, nil
}

// Account holds the balance of a single account and the secret gating access to it.
//
// Password is kept in plaintext, both in memory and in the record store.
type Account struct {
	ID       string          `json:"id"`
	Password string          `json:"password,omitempty"`
	Category Category        `json:"category"`
	Balance  decimal.Decimal `json:"balance"`
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	a.Balance = a.Balance.Add(amount)

	return nil
}

// Withdraw subtracts amount from the balance. The balance is left unchanged on error.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)

	return nil
}

// Send moves amount from a to receiver. Neither balance changes on error.
func (a *Account) Send(amount decimal.Decimal, receiver *Account) error {
	if a.ID == receiver.ID {
		return ErrSameAccount
	}

	if err := a.Withdraw(amount); err != nil {
		return err
	}

	receiver.Balance = receiver.Balance.Add(amount)

	return nil
}

// SendParams is the input data for a transfer between two accounts.
//
// The receiver is authenticated as well as the sender.
type SendParams struct {
	FromAccountID string
	FromPassword  string
	ToAccountID   string
	ToPassword    string
	Amount        decimal.Decimal
}

// SendResult is the result of a transfer.
type SendResult struct {
	FromAccount Account `json:"from_account"`
	ToAccount   Account `json:"to_account"`
}

// CorruptRecordError reports a record store line that cannot be parsed.
type CorruptRecordError struct {
	Line   int
	Reason string
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record at line %d: %s", e.Line, e.Reason)
}

// Is makes errors.Is(err, ErrCorruptRecord) true.
func (e *CorruptRecordError) Is(target error) bool {
	return target == ErrCorruptRecord
}

// StorageError reports a failed file operation of the record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) true.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
