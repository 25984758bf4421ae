package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
)

const (
	contextTokenKey   = "userToken"
	contextAccountKey = "account"

	msgUserNotFound       = "No account found with this email."
	msgInvalidCredentials = "Incorrect password."
	msgTooManyAttempts    = "Too many failed attempts. Please try again later."
	msgNotApproved        = "Your account is pending admin approval. Please wait for approval before logging in."
	msgAdminRequired      = "Access denied. Admin credentials required."
	msgAccountNotFound    = "account not found"
	msgRefreshExpired     = "refresh has expired"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"` // -> TEACHER | ADMIN PORTAL
}

type tokenIssuer struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newTokenIssuer(conf *core.Config) *tokenIssuer {
	return &tokenIssuer{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// NewClaims returns the claims of acc. origIat is kept across refreshes.
func NewClaims(conf *core.Config, acc account.Account, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   acc.ID,
			Audience:  "Classroom",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         acc.Name,
		Email:        acc.Email,
		Role:         acc.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	return newTokenIssuer(conf).generate(claims)
}

func (ti *tokenIssuer) generate(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(ti.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(ti.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// authenticate checks the credentials and returns the logged-in account.
// Failed password checks count towards the attempt limit of the email.
func (s *Server) authenticate(ctx context.Context, email, pwd string, adminOnly bool) (account.Account, error) {
	key := core.CleanString(email, true /* lower */)

	allowed, err := s.Attempts.Allowed(ctx, key)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "checking login attempts")
	}
	if !allowed {
		core.LoginAttempts.WithLabelValues("throttled").Inc()
		return account.Account{}, core.NewAuthError(core.AuthTooManyAttempts, msgTooManyAttempts)
	}

	acc, err := s.AccountSvc.GetByEmail(ctx, key)
	if err != nil {
		if err == account.ErrNotFound {
			core.LoginAttempts.WithLabelValues("unknown").Inc()
			return account.Account{}, core.NewAuthError(core.AuthUserNotFound, msgUserNotFound)
		}
		return account.Account{}, errors.Wrap(err, "finding account by email")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		core.LoginAttempts.WithLabelValues("failed").Inc()
		if err = s.Attempts.Fail(ctx, key); err != nil {
			return account.Account{}, errors.Wrap(err, "recording failed login")
		}
		return account.Account{}, core.NewAuthError(core.AuthInvalidCredentials, msgInvalidCredentials)
	}
	if err = s.Attempts.Reset(ctx, key); err != nil {
		return account.Account{}, errors.Wrap(err, "resetting login attempts")
	}

	if adminOnly && !acc.IsAdmin() {
		core.LoginAttempts.WithLabelValues("denied").Inc()
		return account.Account{}, core.NewAuthError(core.AuthAccessDenied, msgAdminRequired)
	}
	if !acc.CanLogin() {
		core.LoginAttempts.WithLabelValues("unapproved").Inc()
		return account.Account{}, core.NewAuthError(core.AuthNotApproved, msgNotApproved)
	}

	acc, err = s.AccountSvc.SetLastLogin(ctx, acc)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "setting lastLogin")
	}
	core.LoginAttempts.WithLabelValues("success").Inc()
	return acc, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextAccount returns the request's account, read from the store once per request.
// A token whose account was deleted is unauthorized.
func getContextAccount(ctx echo.Context, svc *account.Service, clms ...Claims) (account.Account, error) {
	if acc, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return acc, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return account.Account{}, errors.Wrap(err, "getting context claims")
		}
	}

	acc, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if err == account.ErrNotFound {
			return account.Account{}, errAccountNotFound
		}
		return account.Account{}, errors.Wrap(err, "finding account by ID")
	}
	ctx.Set(contextAccountKey, acc)
	return acc, nil
}

// renewToken issues a fresh token for the request's account until the refresh window expires.
func (s *Server) renewToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	acc, err := getContextAccount(ctx, s.AccountSvc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context account")
	}

	// check if account can still log in
	if !acc.CanLogin() {
		return "", core.NewAuthError(core.AuthNotApproved, msgNotApproved)
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(s.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := s.tokens.generate(NewClaims(s.Conf, acc, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
