package usecase

import (
	"strings"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	pkgAuth "github.com/polkiloo/kilopos/internal/pkg/auth"
)

// OperatorUseCase resolves operator identities from bearer tokens.
type OperatorUseCase struct {
	tokens pkgAuth.Strategy
}

// NewOperatorUseCase constructs OperatorUseCase.
func NewOperatorUseCase(strategy pkgAuth.Strategy) *OperatorUseCase {
	return &OperatorUseCase{tokens: strategy}
}

// IssueToken signs a token for an operator shift.
func (u *OperatorUseCase) IssueToken(operatorID int64) (string, error) {
	if operatorID <= 0 {
		return "", domainErrors.Validation("operator id must be positive")
	}
	return u.tokens.IssueToken(operatorID)
}

// ParseToken extracts the operator id. Any failure is reported as ErrUnauthorized.
func (u *OperatorUseCase) ParseToken(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domainErrors.ErrUnauthorized
	}
	operatorID, err := u.tokens.ParseToken(token)
	if err != nil {
		return 0, domainErrors.ErrUnauthorized
	}
	return operatorID, nil
}
