package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger/internal/accountrepo"
	"github.com/go-petr/ledger/internal/domain"
	"github.com/go-petr/ledger/internal/middleware"
	"github.com/go-petr/ledger/pkg/configpkg"
	"github.com/go-petr/ledger/pkg/web"
)

func setupServer(t *testing.T) *Server {
	t.Helper()

	config := configpkg.Config{
		LedgerFile:    filepath.Join(t.TempDir(), "accounts.txt"),
		MaxIDAttempts: 10,
	}

	server, err := New(accountrepo.NewRepoFile(config.LedgerFile), zerolog.Nop(), config)
	if err != nil {
		t.Fatalf("New(repo, logger, %+v) returned error: %v", config, err)
	}

	return server
}

func do(t *testing.T, s *Server, method, url string, body any, creds *domain.Account) (*httptest.ResponseRecorder, web.Response) {
	t.Helper()

	var reqBody bytes.Buffer

	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req, err := http.NewRequest(method, url, &reqBody)
	require.NoError(t, err)

	if creds != nil {
		middleware.AddAuthorization(req, creds.ID, creds.Password)
	}

	recorder := httptest.NewRecorder()
	s.ServeHTTP(recorder, req)

	res := web.Response{Data: &json.RawMessage{}}

	if recorder.Body.Len() > 0 && strings.HasPrefix(recorder.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))
	}

	return recorder, res
}

func accountFrom(t *testing.T, res web.Response) domain.Account {
	t.Helper()

	var d struct {
		Account domain.Account `json:"account"`
	}

	require.NoError(t, json.Unmarshal(*res.Data.(*json.RawMessage), &d))

	return d.Account
}

func TestAccountLifecycle(t *testing.T) {
	s := setupServer(t)

	recorder, res := do(t, s, http.MethodPost, "/accounts", map[string]string{"category": "Personal"}, nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	acc := accountFrom(t, res)
	require.Len(t, acc.ID, 10)
	require.Len(t, acc.Password, 4)
	require.Equal(t, "0", acc.Balance.String())

	recorder, res = do(t, s, http.MethodPost, "/accounts/me/deposit", map[string]string{"amount": "50"}, &acc)
	require.Equal(t, http.StatusOK, recorder.Code)

	got := accountFrom(t, res)
	require.Equal(t, "50", got.Balance.String())
	require.Empty(t, got.Password)

	recorder, res = do(t, s, http.MethodPost, "/accounts/me/withdraw", map[string]string{"amount": "30"}, &acc)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "20", accountFrom(t, res).Balance.String())

	recorder, res = do(t, s, http.MethodPost, "/accounts/me/withdraw", map[string]string{"amount": "50"}, &acc)
	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	require.Equal(t, domain.ErrInsufficientFunds.Error(), res.Error)

	recorder, res = do(t, s, http.MethodGet, "/accounts/me", nil, &acc)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "20", accountFrom(t, res).Balance.String())

	b, err := os.ReadFile(s.Config.LedgerFile)
	require.NoError(t, err)
	require.Equal(t, acc.ID+","+acc.Password+",Personal,20\n", string(b))

	recorder, _ = do(t, s, http.MethodDelete, "/accounts/me", nil, &acc)
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder, res = do(t, s, http.MethodGet, "/accounts/me", nil, &acc)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, domain.ErrAccountNotFound.Error(), res.Error)
}

func TestTransferAPI(t *testing.T) {
	s := setupServer(t)

	_, res := do(t, s, http.MethodPost, "/accounts", map[string]string{"category": "Personal"}, nil)
	a := accountFrom(t, res)

	_, res = do(t, s, http.MethodPost, "/accounts", map[string]string{"category": "Business"}, nil)
	b := accountFrom(t, res)

	recorder, _ := do(t, s, http.MethodPost, "/accounts/me/deposit", map[string]string{"amount": "100"}, &a)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := map[string]string{"to_account_id": b.ID, "to_password": b.Password, "amount": "40"}

	recorder, res = do(t, s, http.MethodPost, "/transfers", body, &a)
	require.Equal(t, http.StatusOK, recorder.Code)

	var d struct {
		Transfer domain.SendResult `json:"transfer"`
	}

	require.NoError(t, json.Unmarshal(*res.Data.(*json.RawMessage), &d))
	require.Equal(t, "60", d.Transfer.FromAccount.Balance.String())
	require.Equal(t, "40", d.Transfer.ToAccount.Balance.String())
	require.Empty(t, d.Transfer.ToAccount.Password)

	body["to_password"] = "wrong"

	recorder, _ = do(t, s, http.MethodPost, "/transfers", body, &a)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder, res = do(t, s, http.MethodGet, "/accounts/me", nil, &b)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "40", accountFrom(t, res).Balance.String())
}

func TestUnauthorized(t *testing.T) {
	s := setupServer(t)

	recorder, res := do(t, s, http.MethodGet, "/accounts/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Equal(t, middleware.ErrAuthHeaderNotFound.Error(), res.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t)

	do(t, s, http.MethodPost, "/accounts", map[string]string{"category": "Personal"}, nil)

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	s.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	b, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	require.Contains(t, string(b), "ledger_http_requests_total")
}
