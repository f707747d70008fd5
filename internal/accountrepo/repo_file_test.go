package accountrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger/internal/domain"
	"github.com/go-petr/ledger/pkg/randompkg"
)

func setupRepo(t *testing.T) *RepoFile {
	t.Helper()

	return NewRepoFile(filepath.Join(t.TempDir(), "accounts.txt"))
}

func randomAccount(t *testing.T) domain.Account {
	t.Helper()

	return domain.Account{
		ID:       randompkg.AccountNumber(),
		Password: randompkg.Password(),
		Category: randompkg.Category(),
		Balance:  decimal.RequireFromString(randompkg.MoneyAmountBetween(0, 1_000)),
	}
}

func seedAccounts(t *testing.T, r *RepoFile, n int) []domain.Account {
	t.Helper()

	accounts := make([]domain.Account, n)

	for i := range accounts {
		accounts[i] = randomAccount(t)
		accounts[i].ID = strings.Repeat(string(rune('1'+i)), 10)

		if err := r.Append(context.Background(), accounts[i]); err != nil {
			t.Fatalf("r.Append(ctx, %+v) returned error: %v", accounts[i], err)
		}
	}

	return accounts
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile(%v) returned error: %v", path, err)
	}

	return string(b)
}

var equateDecimal = cmp.Comparer(func(x, y decimal.Decimal) bool {
	return x.Equal(y)
})

func TestLoadAllMissingFile(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)

	accounts, err := r.LoadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, accounts)
	require.Empty(t, accounts)
}

func TestAppend(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)
	want := seedAccounts(t, r, 3)

	got, err := r.LoadAll(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, equateDecimal); diff != "" {
		t.Errorf("r.LoadAll(ctx) mismatch (-want +got):\n%s", diff)
	}

	lines := strings.Split(strings.TrimSuffix(readFile(t, r.Path()), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, strings.TrimSuffix(FormatRecord(want[0]), "\n"), lines[0])
}

func TestAppendZeroBalanceFormat(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)

	a := domain.Account{ID: "1234567890", Password: "4321", Category: domain.Personal, Balance: decimal.Zero}
	require.NoError(t, r.Append(context.Background(), a))

	require.Equal(t, "1234567890,4321,Personal,0\n", readFile(t, r.Path()))
}

func TestLoadAllCorrupt(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		content  string
		wantLine int
	}{
		{
			name:     "TooFewFields",
			content:  "1111111111,1111,Personal,0\n2222222222,2222,Business\n",
			wantLine: 2,
		},
		{
			name:     "TooManyFields",
			content:  "1111111111,1111,Personal,0,extra\n",
			wantLine: 1,
		},
		{
			name:     "NonNumericBalance",
			content:  "1111111111,1111,Personal,ten\n",
			wantLine: 1,
		},
		{
			name:     "NegativeBalance",
			content:  "1111111111,1111,Personal,-1\n",
			wantLine: 1,
		},
		{
			name:     "UnknownCategory",
			content:  "1111111111,1111,Savings,1\n",
			wantLine: 1,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := setupRepo(t)
			require.NoError(t, os.WriteFile(r.Path(), []byte(tc.content), 0o600))

			accounts, err := r.LoadAll(context.Background())
			require.ErrorIs(t, err, domain.ErrCorruptRecord)
			require.Nil(t, accounts)

			var corruptErr *domain.CorruptRecordError
			require.True(t, errors.As(err, &corruptErr))
			require.Equal(t, tc.wantLine, corruptErr.Line)
		})
	}
}

func TestLoadAllSkipsBlankLinesAndCRLF(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)
	content := "1111111111,1111,Personal,10\r\n\n2222222222,2222,Business,20.5\n  \t\n  3333333333,3333,Personal,7 \n"
	require.NoError(t, os.WriteFile(r.Path(), []byte(content), 0o600))

	accounts, err := r.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.Equal(t, "10", accounts[0].Balance.String())
	require.Equal(t, domain.Business, accounts[1].Category)
	require.Equal(t, "20.5", accounts[1].Balance.String())
	require.Equal(t, "3333333333", accounts[2].ID)
	require.Equal(t, "7", accounts[2].Balance.String())
}

func TestFindByCredentials(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)
	accounts := seedAccounts(t, r, 3)
	target := accounts[1]

	testCases := []struct {
		name      string
		id        string
		password  string
		wantError error
	}{
		{name: "OK", id: target.ID, password: target.Password},
		{name: "WrongPassword", id: target.ID, password: randompkg.String(4), wantError: domain.ErrAccountNotFound},
		{name: "UnknownID", id: "0000000000", password: target.Password, wantError: domain.ErrAccountNotFound},
		{name: "PasswordOfAnotherAccount", id: target.ID, password: accounts[0].Password + "x", wantError: domain.ErrAccountNotFound},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.FindByCredentials(context.Background(), tc.id, tc.password)
			if tc.wantError != nil {
				require.ErrorIs(t, err, tc.wantError)
				require.Empty(t, got)

				return
			}

			require.NoError(t, err)

			if diff := cmp.Diff(target, got, equateDecimal); diff != "" {
				t.Errorf("r.FindByCredentials mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteByCredentials(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)
	accounts := seedAccounts(t, r, 3)

	before := strings.SplitAfter(readFile(t, r.Path()), "\n")

	n, err := r.DeleteByCredentials(context.Background(), accounts[1].ID, accounts[1].Password)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// The other lines stay byte-identical.
	want := before[0] + before[2]
	require.Equal(t, want, readFile(t, r.Path()))

	_, err = r.FindByCredentials(context.Background(), accounts[1].ID, accounts[1].Password)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDeleteByCredentialsNotFound(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)
	accounts := seedAccounts(t, r, 2)
	before := readFile(t, r.Path())

	n, err := r.DeleteByCredentials(context.Background(), accounts[0].ID, "wrong")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.Zero(t, n)
	require.Equal(t, before, readFile(t, r.Path()))
}

func TestRewriteAll(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)
	accounts := seedAccounts(t, r, 3)

	reordered := []domain.Account{accounts[2], accounts[0]}
	require.NoError(t, r.RewriteAll(context.Background(), reordered))

	got, err := r.LoadAll(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(reordered, got, equateDecimal); diff != "" {
		t.Errorf("r.LoadAll(ctx) mismatch (-want +got):\n%s", diff)
	}

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(r.Path()))
	require.NoError(t, err)

	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
}

func TestExecTxRollback(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)
	accounts := seedAccounts(t, r, 2)
	before := readFile(t, r.Path())

	errAbort := errors.New("abort")

	err := r.ExecTx(context.Background(), func(q Querier) error {
		loaded, err := q.LoadAll(context.Background())
		if err != nil {
			return err
		}

		loaded[0].Balance = loaded[0].Balance.Add(decimal.NewFromInt(100))

		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	require.Equal(t, before, readFile(t, r.Path()))
	require.Len(t, accounts, 2)
}

func TestExecTxCanceledContext(t *testing.T) {
	t.Parallel()

	r := setupRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := r.ExecTx(ctx, func(q Querier) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestStorageError(t *testing.T) {
	t.Parallel()

	r := NewRepoFile(filepath.Join(t.TempDir(), "missing-dir", "accounts.txt"))

	_, err := r.LoadAll(context.Background())
	require.ErrorIs(t, err, domain.ErrStorage)

	err = r.Append(context.Background(), randomAccount(t))
	require.ErrorIs(t, err, domain.ErrStorage)
}
