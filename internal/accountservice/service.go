// Package accountservice manages business logic layer of accounts.
//
// Every operation reloads the full record set, changes it in memory and writes
// the complete set back inside a single store transaction.
package accountservice

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/ledger/internal/accountrepo"
	"github.com/go-petr/ledger/internal/domain"
	"github.com/go-petr/ledger/pkg/randompkg"
)

// DefaultMaxIDAttempts bounds account number generation retries on collision.
const DefaultMaxIDAttempts = 10

// Repo provides data access layer interface needed by account service layer.
type Repo interface {
	ExecTx(ctx context.Context, fn func(q accountrepo.Querier) error) error
}

// Service facilitates account service layer logic.
type Service struct {
	repo             Repo
	maxIDAttempts    int
	newAccountNumber func() string
	newPassword      func() string
}

// Option configures Service.
type Option func(*Service)

// WithMaxIDAttempts sets how many account numbers are tried before giving up.
func WithMaxIDAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxIDAttempts = n
		}
	}
}

// WithGenerators replaces the account number and password generators.
func WithGenerators(accountNumber, password func() string) Option {
	return func(s *Service) {
		s.newAccountNumber = accountNumber
		s.newPassword = password
	}
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo, opts ...Option) *Service {
	s := &Service{
		repo:             ar,
		maxIDAttempts:    DefaultMaxIDAttempts,
		newAccountNumber: randompkg.AccountNumber,
		newPassword:      randompkg.Password,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create creates and returns an account with zero balance for the given category.
//
// The account number is unique among the accounts in the store.
func (s *Service) Create(ctx context.Context, category domain.Category) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if !category.IsValid() {
		l.Info().Str("category", string(category)).Err(domain.ErrInvalidCategory).Send()
		return domain.Account{}, domain.ErrInvalidCategory
	}

	var created domain.Account

	err := s.repo.ExecTx(ctx, func(q accountrepo.Querier) error {
		accounts, err := q.LoadAll(ctx)
		if err != nil {
			return err
		}

		taken := make(map[string]struct{}, len(accounts))
		for _, a := range accounts {
			taken[a.ID] = struct{}{}
		}

		for i := 0; i < s.maxIDAttempts; i++ {
			id := s.newAccountNumber()
			if _, ok := taken[id]; ok {
				l.Debug().Str("account_id", id).Msg("account number collision")
				continue
			}

			a := domain.Account{
				ID:       id,
				Password: s.newPassword(),
				Category: category,
				Balance:  decimal.Zero,
			}

			if err := q.Append(ctx, a); err != nil {
				return err
			}

			created = a

			return nil
		}

		return domain.ErrIDSpaceExhausted
	})
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, err
	}

	l.Info().Str("account_id", created.ID).Str("category", string(created.Category)).Msg("account created")

	return created, nil
}

// Login returns the account for the given credentials.
func (s *Service) Login(ctx context.Context, id, password string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	err := s.repo.ExecTx(ctx, func(q accountrepo.Querier) error {
		var err error
		a, err = q.FindByCredentials(ctx, id, password)

		return err
	})
	if err != nil {
		logFailure(l, err)
		return domain.Account{}, err
	}

	return a, nil
}

// Deposit adds amount to the account balance and returns the updated account.
func (s *Service) Deposit(ctx context.Context, id, password string, amount decimal.Decimal) (domain.Account, error) {
	return s.update(ctx, id, password, amount, func(a *domain.Account) error {
		return a.Deposit(amount)
	})
}

// Withdraw subtracts amount from the account balance and returns the updated account.
func (s *Service) Withdraw(ctx context.Context, id, password string, amount decimal.Decimal) (domain.Account, error) {
	return s.update(ctx, id, password, amount, func(a *domain.Account) error {
		return a.Withdraw(amount)
	})
}

// Send transfers money between two authenticated accounts.
//
// Both updated records are persisted by one rewrite, so either both changes
// reach the store or neither does.
func (s *Service) Send(ctx context.Context, arg domain.SendParams) (domain.SendResult, error) {
	l := zerolog.Ctx(ctx).With().
		Str("from_account_id", arg.FromAccountID).
		Str("to_account_id", arg.ToAccountID).
		Logger()

	if !arg.Amount.IsPositive() {
		l.Info().Err(domain.ErrNonPositiveAmount).Send()
		return domain.SendResult{}, domain.ErrNonPositiveAmount
	}

	if arg.FromAccountID == arg.ToAccountID {
		l.Info().Err(domain.ErrSameAccount).Send()
		return domain.SendResult{}, domain.ErrSameAccount
	}

	var result domain.SendResult

	err := s.repo.ExecTx(ctx, func(q accountrepo.Querier) error {
		accounts, err := q.LoadAll(ctx)
		if err != nil {
			return err
		}

		from := indexOf(accounts, arg.FromAccountID, arg.FromPassword)
		to := indexOf(accounts, arg.ToAccountID, arg.ToPassword)

		if from < 0 || to < 0 {
			return domain.ErrAccountNotFound
		}

		if err := accounts[from].Send(arg.Amount, &accounts[to]); err != nil {
			return err
		}

		if err := q.RewriteAll(ctx, accounts); err != nil {
			return err
		}

		result.FromAccount, result.ToAccount = accounts[from], accounts[to]

		return nil
	})
	if err != nil {
		logFailure(&l, err)
		return domain.SendResult{}, err
	}

	l.Info().Str("amount", arg.Amount.String()).Msg("money sent")

	return result, nil
}

// Delete removes the account with the given credentials.
func (s *Service) Delete(ctx context.Context, id, password string) error {
	l := zerolog.Ctx(ctx)

	var removed int

	err := s.repo.ExecTx(ctx, func(q accountrepo.Querier) error {
		var err error
		removed, err = q.DeleteByCredentials(ctx, id, password)

		return err
	})
	if err != nil {
		logFailure(l, err)
		return err
	}

	l.Info().Str("account_id", id).Int("removed", removed).Msg("account deleted")

	return nil
}

// update applies fn to the account matching the credentials and persists the full set.
func (s *Service) update(ctx context.Context, id, password string, amount decimal.Decimal, fn func(a *domain.Account) error) (domain.Account, error) {
	l := zerolog.Ctx(ctx).With().Str("account_id", id).Logger()

	if !amount.IsPositive() {
		l.Info().Err(domain.ErrNonPositiveAmount).Send()
		return domain.Account{}, domain.ErrNonPositiveAmount
	}

	var updated domain.Account

	err := s.repo.ExecTx(ctx, func(q accountrepo.Querier) error {
		accounts, err := q.LoadAll(ctx)
		if err != nil {
			return err
		}

		i := indexOf(accounts, id, password)
		if i < 0 {
			return domain.ErrAccountNotFound
		}

		if err := fn(&accounts[i]); err != nil {
			return err
		}

		if err := q.RewriteAll(ctx, accounts); err != nil {
			return err
		}

		updated = accounts[i]

		return nil
	})
	if err != nil {
		logFailure(&l, err)
		return domain.Account{}, err
	}

	l.Info().Str("amount", amount.String()).Str("balance", updated.Balance.String()).Send()

	return updated, nil
}

func indexOf(accounts []domain.Account, id, password string) int {
	for i, a := range accounts {
		if a.ID == id && a.Password == password {
			return i
		}
	}

	return -1
}

// logFailure logs rejected requests at info and storage failures at error level.
func logFailure(l *zerolog.Logger, err error) {
	switch err {
	case domain.ErrAccountNotFound,
		domain.ErrInsufficientFunds,
		domain.ErrNonPositiveAmount,
		domain.ErrSameAccount:
		l.Info().Err(err).Send()
	default:
		l.Error().Stack().Err(err).Send()
	}
}
