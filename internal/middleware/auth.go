package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/ledger/pkg/web"
)

// AuthCredentialsKey is the gin context key holding the request Credentials.
const AuthCredentialsKey = "auth_credentials"

var (
	// ErrAuthHeaderNotFound indicates a request without basic credentials.
	ErrAuthHeaderNotFound = errors.New("authorization header is not provided")
	// ErrBadAuthHeaderFormat indicates empty account number or password.
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
)

// Credentials identify and authenticate an account.
type Credentials struct {
	AccountID string
	Password  string
}

// AddAuthorization sets basic auth credentials on the request.
func AddAuthorization(r *http.Request, accountID, password string) {
	r.SetBasicAuth(accountID, password)
}

// BasicAuth extracts account number and password from the Authorization header.
//
// Credentials are not checked here; every service call verifies them against the store.
func BasicAuth() gin.HandlerFunc {
	return func(gctx *gin.Context) {
		accountID, password, ok := gctx.Request.BasicAuth()
		if !ok {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))
			return
		}

		if strings.TrimSpace(accountID) == "" || password == "" {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrBadAuthHeaderFormat))
			return
		}

		gctx.Set(AuthCredentialsKey, Credentials{AccountID: accountID, Password: password})
		gctx.Next()
	}
}
