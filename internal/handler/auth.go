package handler

import (
	"context"  // provides context with cancellation for store calls
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"github.com/sirupsen/logrus"  // structured logging

	"github.com/iliyamo/messagely/internal/middleware" // authenticated caller lookup
	"github.com/iliyamo/messagely/internal/model"      // user views
	"github.com/iliyamo/messagely/internal/service"    // credential store and token issuing
)

// requestTimeout bounds the store work of every handler.
const requestTimeout = 5 * time.Second

// Credentials is the part of *service.CredentialStore the auth endpoints use.
type Credentials interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Authenticate(ctx context.Context, username, password string) error
}

// TokenIssuer is implemented by *service.AuthGateway.
type TokenIssuer interface {
	IssueToken(username string) (string, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Creds  Credentials
	Tokens TokenIssuer
	Users  UserDirectory
	// UsersChanged runs after a successful registration, e.g. to purge the
	// cached user list. Optional.
	UsersChanged func(ctx context.Context) error
}

func NewAuthHandler(creds Credentials, tokens TokenIssuer, users UserDirectory) *AuthHandler {
	if creds == nil || tokens == nil || users == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Creds: creds, Tokens: tokens, Users: users}
}

// ----- DTOs -----

type registerReq struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type tokenResp struct {
	Token string `json:"token"`
}

// Register: create user and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Creds.Register(ctx, service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return respondError(c, err)
	}
	if h.UsersChanged != nil {
		if err := h.UsersChanged(ctx); err != nil {
			logrus.WithError(err).Warn("users changed hook failed")
		}
	}

	token, err := h.Tokens.IssueToken(u.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, tokenResp{Token: token})
}

// Login: verify the password and return a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in := service.LoginInput{Username: req.Username, Password: req.Password}
	if err := in.Validate(); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Creds.Authenticate(ctx, in.Username, in.Password); err != nil {
		return respondError(c, err)
	}
	token, err := h.Tokens.IssueToken(in.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{Token: token})
}

// Me: the caller's own directory record.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Get(ctx, middleware.CurrentUsername(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
