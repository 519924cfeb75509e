// Package clienttest runs an in-process fake of the Recreo loyalty API for
// tests of the client and services packages.
package clienttest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ccelrecreo/recreo/internal/client/models"
	"github.com/ccelrecreo/recreo/internal/common"
	"github.com/labstack/echo/v4"
)

const (
	MsgBadCredentials = "Credenciales incorrectas"
	MsgAccountExists  = "La cuenta ya existe"
)

// Account is a fake backend account.
type Account struct {
	Password string
	// Token is returned verbatim by login, so tests can send non-string tokens.
	Token json.RawMessage
	User  models.Profile
}

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	accounts   map[string]Account
	registered []models.Account
	requestIDs []string
	loginCalls int
	loginGate  chan struct{}
}

// NewServer starts the fake API and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{accounts: make(map[string]Account)}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.recordRequestID)
	e.POST("/loginCuenta", s.login)
	e.POST("/scrCuentas", s.register)
	e.GET("/cuentascra/:id", s.profile)

	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// AddAccount registers identifier with the given account data.
func (s *Server) AddAccount(identifier string, a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[identifier] = a
}

// SetPassword changes the password of an existing account, making stored
// credentials stale.
func (s *Server) SetPassword(identifier, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accounts[identifier]
	a.Password = password
	s.accounts[identifier] = a
}

// HoldLogins makes login handlers wait until the returned func is called.
func (s *Server) HoldLogins() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.loginGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (s *Server) LoginCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls
}

func (s *Server) Registered() []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Account(nil), s.registered...)
}

func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) recordRequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, c.Request().Header.Get(common.RequestIDHeader))
		s.mu.Unlock()
		return next(c)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (s *Server) login(c echo.Context) error {
	var cred models.Credential
	if err := c.Bind(&cred); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Solicitud inválida"))
	}

	s.mu.Lock()
	s.loginCalls++
	gate := s.loginGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	a, ok := s.accounts[cred.Identifier]
	s.mu.Unlock()
	if !ok || a.Password != cred.Secret {
		return c.JSON(http.StatusUnauthorized, errorBody(MsgBadCredentials))
	}

	return c.JSON(http.StatusOK, map[string]any{"token": a.Token, "user": a.User})
}

func (s *Server) register(c echo.Context) error {
	var acc models.Account
	if err := c.Bind(&acc); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Solicitud inválida"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[acc.Identifier]; exists {
		return c.JSON(http.StatusConflict, errorBody(MsgAccountExists))
	}
	id := len(s.accounts) + 1
	s.accounts[acc.Identifier] = Account{
		Password: acc.Password,
		Token:    json.RawMessage(strconv.Quote("tok-" + acc.Identifier)),
		User: models.Profile{
			models.FieldAccountID: float64(id),
			models.FieldFirstName: acc.FirstName,
			models.FieldLastName:  acc.LastName,
		},
	}
	s.registered = append(s.registered, acc)
	return c.JSON(http.StatusCreated, map[string]any{"data": map[string]any{models.FieldAccountID: id}})
}

func (s *Server) profile(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Not found"})
	}
	bearer, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		accID, _ := a.User.AccountID()
		if accID != id {
			continue
		}
		if tokenText(a.Token) != bearer {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
		}
		return c.JSON(http.StatusOK, map[string]any{"data": a.User})
	}
	return c.JSON(http.StatusNotFound, map[string]string{"message": "Not found"})
}

// tokenText is the string form a client sends back as bearer.
func tokenText(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if json.Compact(&buf, raw) == nil {
		return buf.String()
	}
	return string(raw)
}
