package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

// Identity is the caller as the authorization gate sees it. Role and Email
// always come from the user row, never from token claims.
type Identity struct {
	ID    uint   `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// ResolveIdentity maps a bearer token to the user it belongs to. A missing,
// invalid, expired or logged-out token, or one whose user no longer exists,
// yields ErrUnauthenticated. Any other error is an infrastructure failure.
func ResolveIdentity(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	denied, err := IsDenylisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check token denylist: %w", err)
	}
	if denied {
		return nil, ErrUnauthenticated
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	userID, ok := utils.UserIDFromClaims(claims)
	if !ok {
		return nil, ErrUnauthenticated
	}

	user, err := FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	return &Identity{ID: user.ID, Role: user.Role, Email: user.Email}, nil
}

// RequireAdmin resolves the caller and rejects non-admins with ErrForbidden.
func RequireAdmin(ctx context.Context, token string) (*Identity, error) {
	identity, err := ResolveIdentity(ctx, token)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() {
		return nil, ErrForbidden
	}
	return identity, nil
}
