package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthService resolves bearer tokens to user identities. It is the only
// collaborator the audit core needs from the authentication layer.
type AuthService struct {
	tokens ports.TokenRepository
	users  ports.UserRepository
}

func NewAuthService(tokens ports.TokenRepository, users ports.UserRepository) *AuthService {
	return &AuthService{tokens: tokens, users: users}
}

// Authenticate maps a raw token to its owning user. Inactive tokens and
// inactive users are both rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrUnauthorized
	}

	stored, err := s.tokens.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, fmt.Errorf("find token: %w", err)
	}
	if !stored.Active {
		return domain.User{}, ErrUnauthorized
	}

	user, err := s.users.Get(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, fmt.Errorf("load token user: %w", err)
	}
	if !user.Active {
		return domain.User{}, ErrUnauthorized
	}
	return user, nil
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
