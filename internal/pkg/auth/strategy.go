package auth

import (
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid operator token")

// Strategy issues and verifies operator tokens.
type Strategy interface {
	IssueToken(operatorID int64) (string, error)
	ParseToken(token string) (int64, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}
