package accountdelivery

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger/internal/domain"
	"github.com/go-petr/ledger/internal/middleware"
	"github.com/go-petr/ledger/pkg/errorspkg"
)

const mainMenu = `---------- Welcome to the Ledger ----------

1. Create Account

2. Login

3. Exit
`

const sessionMenu = `What do you want to do?

Enter 1 to Check Balance

Enter 2 to Deposit

Enter 3 to Withdraw

Enter 4 to Send Money

Enter 5 to Delete Account

Enter 6 to Logout
`

// SecretReader reads a password without echoing it.
type SecretReader func() (string, error)

// Menu is the interactive terminal front end of the ledger.
type Menu struct {
	service    Service
	in         *bufio.Scanner
	out        io.Writer
	logger     zerolog.Logger
	readSecret SecretReader
}

// MenuOption configures Menu.
type MenuOption func(*Menu)

// WithSecretReader makes the menu read passwords through fn instead of the input stream.
func WithSecretReader(fn SecretReader) MenuOption {
	return func(m *Menu) {
		m.readSecret = fn
	}
}

// NewMenu returns a menu reading commands from in and printing to out.
func NewMenu(s Service, in io.Reader, out io.Writer, logger zerolog.Logger, opts ...MenuOption) *Menu {
	m := &Menu{
		service: s,
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  logger,
	}

	m.readSecret = m.nextLine

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Run shows the main menu until the user exits or the input ends.
//
// Failed operations are reported to the user and never end the loop.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printf("%s", mainMenu)

		choice, err := m.prompt("\nEnter your choice: ")
		if err != nil {
			return ignoreEOF(err)
		}

		switch choice {
		case "1":
			err = m.create(ctx)
		case "2":
			err = m.login(ctx)
		case "3":
			return nil
		default:
			m.println("Invalid choice!")
		}

		if err != nil {
			return ignoreEOF(err)
		}
	}
}

func (m *Menu) create(ctx context.Context) error {
	input, err := m.prompt("Enter account type (Personal/Business): ")
	if err != nil {
		return err
	}

	category, err := domain.ParseCategory(input)
	if err != nil {
		m.println("Invalid account type!")
		return nil
	}

	ctx = middleware.WithOperation(ctx, m.logger, "create")

	acc, err := m.service.Create(ctx, category)
	if err != nil {
		m.reportError(ctx, err)
		return nil
	}

	m.printf("Account created. Number: %s, Password: %s\n", acc.ID, acc.Password)

	return nil
}

func (m *Menu) login(ctx context.Context) error {
	id, err := m.prompt("Enter account number: ")
	if err != nil {
		return err
	}

	m.printf("Enter password: ")

	password, err := m.readSecret()
	if err != nil {
		return err
	}

	password = strings.TrimSpace(password)

	opCtx := middleware.WithOperation(ctx, m.logger, "login")

	if _, err := m.service.Login(opCtx, id, password); err != nil {
		if err == domain.ErrAccountNotFound {
			m.println("Invalid account number or password!")
			return nil
		}

		m.reportError(opCtx, err)

		return nil
	}

	m.println("Login successful!")

	return m.session(ctx, id, password)
}

// session serves the logged in menu. It returns nil on logout or account deletion.
func (m *Menu) session(ctx context.Context, id, password string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printf("%s", sessionMenu)

		choice, err := m.prompt("Enter your choice: ")
		if err != nil {
			return err
		}

		var loggedOut bool

		switch choice {
		case "1":
			loggedOut = m.balance(ctx, id, password)
		case "2":
			loggedOut, err = m.changeBalance(ctx, "deposit", id, password)
		case "3":
			loggedOut, err = m.changeBalance(ctx, "withdraw", id, password)
		case "4":
			loggedOut, err = m.send(ctx, id, password)
		case "5":
			m.deleteAccount(ctx, id, password)
			return nil
		case "6":
			m.println("Logged out.")
			return nil
		default:
			m.println("Invalid choice!")
		}

		if err != nil {
			return err
		}

		if loggedOut {
			return nil
		}
	}
}

func (m *Menu) balance(ctx context.Context, id, password string) bool {
	ctx = middleware.WithOperation(ctx, m.logger, "balance")

	acc, err := m.service.Login(ctx, id, password)
	if err != nil {
		return m.sessionError(ctx, err)
	}

	m.printf("Your balance is: %s\n", acc.Balance)

	return false
}

func (m *Menu) changeBalance(ctx context.Context, op, id, password string) (bool, error) {
	amount, ok, err := m.readAmount(fmt.Sprintf("Enter amount to %s: ", op))
	if err != nil || !ok {
		return false, err
	}

	ctx = middleware.WithOperation(ctx, m.logger, op)

	var acc domain.Account

	if op == "deposit" {
		acc, err = m.service.Deposit(ctx, id, password, amount)
	} else {
		acc, err = m.service.Withdraw(ctx, id, password, amount)
	}

	if err != nil {
		return m.sessionError(ctx, err), nil
	}

	if op == "deposit" {
		m.printf("Deposited %s. Your new balance: %s\n", amount, acc.Balance)
	} else {
		m.printf("Withdrew %s. Your new balance: %s\n", amount, acc.Balance)
	}

	return false, nil
}

func (m *Menu) send(ctx context.Context, id, password string) (bool, error) {
	toID, err := m.prompt("Enter receiver's account number: ")
	if err != nil {
		return false, err
	}

	m.printf("Enter receiver's password: ")

	toPassword, err := m.readSecret()
	if err != nil {
		return false, err
	}

	amount, ok, err := m.readAmount("Enter amount to send: ")
	if err != nil || !ok {
		return false, err
	}

	ctx = middleware.WithOperation(ctx, m.logger, "send")

	result, err := m.service.Send(ctx, domain.SendParams{
		FromAccountID: id,
		FromPassword:  password,
		ToAccountID:   toID,
		ToPassword:    strings.TrimSpace(toPassword),
		Amount:        amount,
	})
	if err != nil {
		if err == domain.ErrAccountNotFound {
			m.println("Receiver account not found or invalid password!")
			return false, nil
		}

		return m.sessionError(ctx, err), nil
	}

	m.printf("Sent %s to %s. Your new balance: %s\n", amount, result.ToAccount.ID, result.FromAccount.Balance)

	return false, nil
}

func (m *Menu) deleteAccount(ctx context.Context, id, password string) {
	ctx = middleware.WithOperation(ctx, m.logger, "delete")

	if err := m.service.Delete(ctx, id, password); err != nil {
		if err == domain.ErrAccountNotFound {
			m.println("Account not found. Logging out.")
			return
		}

		m.reportError(ctx, err)
		m.println("Logging out.")

		return
	}

	m.println("Account deleted. Logging out.")
}

// readAmount returns ok=false after telling the user the input is not a number.
func (m *Menu) readAmount(prompt string) (decimal.Decimal, bool, error) {
	input, err := m.prompt(prompt)
	if err != nil {
		return decimal.Decimal{}, false, err
	}

	amount, err := domain.ParseAmount(input)
	if err != nil {
		m.println("Invalid amount!")
		return decimal.Decimal{}, false, nil
	}

	return amount, true, nil
}

// sessionError reports err and returns true when the session account no longer exists.
func (m *Menu) sessionError(ctx context.Context, err error) bool {
	if err == domain.ErrAccountNotFound {
		m.println("Account not found. Logging out.")
		return true
	}

	m.reportError(ctx, err)

	return false
}

func (m *Menu) reportError(ctx context.Context, err error) {
	switch err {
	case domain.ErrInsufficientFunds:
		m.println("Insufficient funds!")
	case domain.ErrNonPositiveAmount:
		m.println("Amount must be positive!")
	case domain.ErrSameAccount:
		m.println("Cannot send money to the same account!")
	case domain.ErrIDSpaceExhausted:
		m.println("Cannot create account, try again later!")
	default:
		zerolog.Ctx(ctx).Error().Stack().Err(err).Msg("menu operation failed")
		m.printf("Operation failed: %v\n", errorspkg.ErrInternal)
	}
}

func (m *Menu) prompt(text string) (string, error) {
	m.printf("%s", text)
	return m.nextLine()
}

func (m *Menu) nextLine() (string, error) {
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", errors.WithStack(err)
		}

		return "", io.EOF
	}

	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func (m *Menu) println(text string) {
	fmt.Fprintln(m.out, text)
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}
