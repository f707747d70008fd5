// Package randompkg provides functionality for generating random account numbers,
// passwords and test data.
package randompkg

import (
	"crypto/rand"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger/internal/domain"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"

	minAccountNumber = 1_000_000_000
	maxAccountNumber = 9_999_999_999

	minPassword = 1_000
	maxPassword = 9_999
)

// Intn is a shortcut for generating a random integer in [0, max) using crypto/rand.
func Intn(max int64) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// IntBetween generates a random integer in [min, max].
func IntBetween(min, max int64) int64 {
	return min + Intn(max-min+1)
}

// Float64 is a shortcut for generating a random float between 0 and 1 using crypto/rand.
func Float64() float64 {
	return float64(Intn(1<<32)) / (1 << 32)
}

// FloatBetween generates a random decimal number between min and max rounded to 4 decimals.
func FloatBetween(min, max float64) float64 {
	numInRange := min + Float64()*(max-min)
	return math.Floor(numInRange*10_000) / 10_000
}

// AccountNumber generates a random 10-digit account number.
func AccountNumber() string {
	return strconv.FormatInt(IntBetween(minAccountNumber, maxAccountNumber), 10)
}

// Password generates a random 4-digit password.
func Password() string {
	return strconv.FormatInt(IntBetween(minPassword, maxPassword), 10)
}

// String generates a random string of length n.
func String(n int) string {
	var sb strings.Builder

	k := int64(len(alphabet))

	for i := 0; i < n; i++ {
		c := alphabet[Intn(k)]

		_ = sb.WriteByte(c) // The returned err is always nil.
	}

	return sb.String()
}

// MoneyAmountBetween generates a random amount of money between min and max rounded to 4 decimals.
func MoneyAmountBetween(min, max float64) string {
	return decimal.NewFromFloat(FloatBetween(min, max)).String()
}

// Category picks a random account category.
func Category() domain.Category {
	return domain.Categories[Intn(int64(len(domain.Categories)))]
}
