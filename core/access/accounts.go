// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/store"
)

// UsersTable is the table holding username, password_hash and rol
const UsersTable = "usuarios"

// errors returned by Authenticate
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUnknownUser        = errors.New("user not found")
	ErrWrongPassword      = errors.New("wrong password")
)

// Account is a user who can log in
type Account struct {
	Username string
	Password string
	Rol      string
}

// Accounts checks credentials against the users table
type Accounts struct {
	Store store.Store
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate returns the user row for username if password matches its hash.
// The password hash is removed from the returned row.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (store.Row, error) {
	if len(username) == 0 || len(password) == 0 {
		return nil, ErrMissingCredentials
	}
	user, err := a.Store.SelectOne(ctx, store.From(UsersTable).Eq("username", username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	hash, _ := user.String("password_hash")
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrWrongPassword
	}
	return user.Without("password_hash"), nil
}

// EnsureAccounts creates the specified accounts if their username does not exist yet
func (a *Accounts) EnsureAccounts(ctx context.Context, accounts ...Account) error {
	for _, account := range accounts {
		_, err := a.Store.SelectOne(ctx, store.From(UsersTable).Select("username").Eq("username", account.Username))
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		hash, err := HashPassword(account.Password)
		if err != nil {
			return err
		}
		_, err = a.Store.Insert(ctx, UsersTable, store.Row{
			"username":      account.Username,
			"password_hash": hash,
			"rol":           account.Rol,
		})
		if err != nil {
			return fmt.Errorf("cannot create account %s: %w", account.Username, err)
		}
	}
	return nil
}

// HandleLoginRoute adds a route /login POST to the router
//
// The route expects {"username","password"} and returns {"token","user"}.
func HandleLoginRoute(router *mux.Router, accounts *Accounts, issuer *Issuer) {
	rlog := logger.Default()
	rlog.Debugln("login")
	rlog.Debugln("  handle route: /login POST")
	router.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		var credentials struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			writeError(w, http.StatusBadRequest, ErrMissingCredentials.Error())
			return
		}
		user, err := accounts.Authenticate(r.Context(), credentials.Username, credentials.Password)
		switch {
		case errors.Is(err, ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, ErrUnknownUser), errors.Is(err, ErrWrongPassword):
			rlog.Infof("login failed for %s: %v", credentials.Username, err)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			rlog.WithError(err).Errorln("authentication error")
			writeError(w, http.StatusInternalServerError, "authentication error")
			return
		}
		rol, _ := user.String("rol")
		token, err := issuer.Sign(credentials.Username, rol)
		if err != nil {
			rlog.WithError(err).Errorln("cannot sign token")
			writeError(w, http.StatusInternalServerError, "authentication error")
			return
		}
		jsonData, _ := json.Marshal(map[string]interface{}{"token": token, "user": user})
		w.Header().Set("Content-Type", "application/json")
		w.Write(jsonData)
	}).Methods(http.MethodOptions, http.MethodPost)
}
