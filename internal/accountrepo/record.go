package accountrepo

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger/internal/domain"
)

const (
	fieldSeparator = ","
	fieldCount     = 4
)

// FormatRecord encodes the account as a newline terminated store line:
//
//	identifier,credential,category,balance
//
// Fields are not escaped, so a value containing a comma corrupts the line.
func FormatRecord(a domain.Account) string {
	return strings.Join([]string{
		a.ID,
		a.Password,
		string(a.Category),
		a.Balance.String(),
	}, fieldSeparator) + "\n"
}

// ParseRecord decodes a single store line without its line terminator.
// lineNo is only used for error reporting.
func ParseRecord(lineNo int, line string) (domain.Account, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != fieldCount {
		return domain.Account{}, corrupt(lineNo, "expected %d fields, got %d", fieldCount, len(fields))
	}

	category, err := domain.ParseCategory(fields[2])
	if err != nil {
		return domain.Account{}, corrupt(lineNo, "unknown category %q", fields[2])
	}

	balance, err := decimal.NewFromString(fields[3])
	if err != nil {
		return domain.Account{}, corrupt(lineNo, "balance %q is not numeric", fields[3])
	}

	if balance.IsNegative() {
		return domain.Account{}, corrupt(lineNo, "balance %q is negative", fields[3])
	}

	return domain.Account{
		ID:       fields[0],
		Password: fields[1],
		Category: category,
		Balance:  balance,
	}, nil
}

func corrupt(lineNo int, format string, args ...any) *domain.CorruptRecordError {
	return &domain.CorruptRecordError{
		Line:   lineNo,
		Reason: fmt.Sprintf(format, args...),
	}
}
