package usecase

import (
	"circulation-core/internal/pkg/errs"
	"circulation-core/internal/pkg/jwt"
	"circulation-core/internal/usecase/commands"

	"github.com/google/uuid"
)

var ErrUnknownRole = errs.New("unknown role in token")

// TokenValidator provides token validation for middleware
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, commands.Role, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (uuid.UUID, commands.Role, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, "", err
	}

	role := commands.Role(claims.Role)
	if !role.IsValid() {
		return uuid.Nil, "", ErrUnknownRole
	}

	return claims.UserID, role, nil
}
