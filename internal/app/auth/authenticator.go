/*
Package auth resolves the identity behind a WebSocket handshake.

Tokens are issued by the account service; this package only verifies them and looks up
the player they name. A connection is created only after Authenticate succeeds.
*/
package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"playchat/internal/app/user"
	"playchat/internal/pkg/auth/jwt"
	"playchat/internal/pkg/errs"
	"playchat/internal/pkg/logx"
)

// UserFinder looks up players by id. It returns user.ErrNotFound for unknown ids.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (user.User, error)
}

// Authenticator verifies session tokens and resolves them to a user.
type Authenticator struct {
	secret string
	users  UserFinder
	logger zerolog.Logger
}

// NewAuthenticator creates an Authenticator that verifies HS256 tokens signed with secret.
func NewAuthenticator(secret string, users UserFinder) *Authenticator {
	return &Authenticator{
		secret: secret,
		users:  users,
		logger: logx.Component("Authenticator"),
	}
}

// Authenticate parses token and returns the user it names.
// Every failure is reported as ErrUnauthorized so callers cannot tell a bad signature
// from an unknown user.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (user.User, *errs.CustomError) {
	if token == "" {
		return user.User{}, errs.NewError(errs.ErrUnauthorized)
	}

	claims, err := jwt.ParseToken(token, a.secret)
	if err != nil {
		a.logger.Info().Err(err).Msg("Rejected handshake token")
		return user.User{}, errs.NewError(errs.ErrUnauthorized)
	}

	u, err := a.users.GetUserByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			a.logger.Info().Str("client_id", claims.ID).Msg("Token names an unknown user")
		} else {
			a.logger.Error().Err(err).Str("client_id", claims.ID).Msg("Failed to resolve user for handshake")
		}
		return user.User{}, errs.NewError(errs.ErrUnauthorized)
	}

	return u, nil
}
