// Package auth verifies the access tokens issued by the website. Token issuance lives with the
// website's login flow, this package only checks signatures and loads the caller's privileges.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adagearchive/moderation/internal/auth/permission"
	"github.com/adagearchive/moderation/internal/auth/session"
	"github.com/adagearchive/moderation/internal/person"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrAuthentication      = errors.New("failed to authenticate")
	ErrExpired             = errors.New("token expired")
	ErrMalformedAuthHeader = errors.New("malformed auth header")
	ErrSignToken           = errors.New("failed to sign token")
)

type UserAuthClaims struct {
	jwt.RegisteredClaims
}

type PersonReader interface {
	ByID(ctx context.Context, userID int64) (person.Person, error)
}

type Authenticator struct {
	secret  []byte
	issuer  string
	persons PersonReader
}

func New(secret string, issuer string, persons PersonReader) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, persons: persons}
}

// Middleware rejects callers below level. Guest level routes pass anonymous callers through with a
// guest profile.
func (a *Authenticator) Middleware(level permission.Privilege) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, errToken := tokenFromHeader(ctx.GetHeader("Authorization"))
		if errToken != nil {
			if level == permission.Guest {
				session.SetUserProfile(ctx, session.Guest())
				ctx.Next()

				return
			}

			ctx.AbortWithStatus(http.StatusUnauthorized)

			return
		}

		userID, errFromToken := a.UserIDFromToken(token)
		if errFromToken != nil {
			if errors.Is(errFromToken, ErrExpired) {
				ctx.AbortWithStatus(http.StatusUnauthorized)

				return
			}

			slog.Warn("Failed to load user from access token", log.ErrAttr(errFromToken))
			ctx.AbortWithStatus(http.StatusForbidden)

			return
		}

		loggedInPerson, errPerson := a.persons.ByID(ctx, userID)
		if errPerson != nil {
			slog.Error("Failed to load person during auth", log.ErrAttr(errPerson), slog.Int64("user_id", userID))
			ctx.AbortWithStatus(http.StatusForbidden)

			return
		}

		if !loggedInPerson.PermissionLevel.Has(level) {
			ctx.AbortWithStatus(http.StatusForbidden)

			return
		}

		session.SetUserProfile(ctx, session.UserProfile{
			UserID:          loggedInPerson.UserID,
			Name:            loggedInPerson.Name,
			PermissionLevel: loggedInPerson.PermissionLevel,
		})

		if hub := sentrygin.GetHubFromContext(ctx); hub != nil {
			hub.Scope().SetUser(sentry.User{
				ID:        strconv.FormatInt(loggedInPerson.UserID, 10),
				IPAddress: ctx.ClientIP(),
				Username:  loggedInPerson.Name,
			})
		}

		ctx.Next()
	}
}

func (a *Authenticator) UserIDFromToken(token string) (int64, error) {
	claims := &UserAuthClaims{}

	tkn, errParseClaims := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(a.issuer))
	if errParseClaims != nil {
		if errors.Is(errParseClaims, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}

		return 0, errors.Join(errParseClaims, ErrAuthentication)
	}

	if !tkn.Valid {
		return 0, ErrAuthentication
	}

	userID, errID := strconv.ParseInt(claims.Subject, 10, 64)
	if errID != nil || userID <= 0 {
		return 0, ErrAuthentication
	}

	return userID, nil
}

// NewUserToken signs an access token in the same format the website issues.
func NewUserToken(secret string, issuer string, userID int64, validDuration time.Duration) (string, error) {
	nowTime := time.Now()
	claims := UserAuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(nowTime.Add(validDuration)),
			IssuedAt:  jwt.NewNumericDate(nowTime),
			NotBefore: jwt.NewNumericDate(nowTime),
		},
	}

	signedToken, errSigned := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if errSigned != nil {
		return "", errors.Join(errSigned, ErrSignToken)
	}

	return signedToken, nil
}

func tokenFromHeader(header string) (string, error) {
	pcs := strings.Split(header, " ")
	if len(pcs) != 2 || !strings.EqualFold(pcs[0], "bearer") || pcs[1] == "" {
		return "", ErrMalformedAuthHeader
	}

	return pcs[1], nil
}
