package test

import (
	"fmt"
	"strconv"
	"strings"

	pkgAuth "github.com/polkiloo/kilopos/internal/pkg/auth"
)

const stubTokenPrefix = "operator:"

// StrategyStub issues readable "operator:<id>" tokens unless overridden.
type StrategyStub struct {
	IssueFn func(int64) (string, error)
	ParseFn func(string) (int64, error)
}

func (s StrategyStub) IssueToken(operatorID int64) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(operatorID)
	}
	return fmt.Sprintf("%s%d", stubTokenPrefix, operatorID), nil
}

func (s StrategyStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	raw, ok := strings.CutPrefix(token, stubTokenPrefix)
	if !ok {
		return 0, pkgAuth.ErrInvalidToken
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgAuth.ErrInvalidToken
	}
	return id, nil
}

func (s StrategyStub) Name() string { return "stub" }

// TokenParserStub resolves bearer tokens for middleware tests. With Tokens set
// only listed tokens are accepted; otherwise every token maps to ID.
type TokenParserStub struct {
	ID     int64
	Err    error
	Tokens map[string]int64
}

func (s TokenParserStub) ParseToken(token string) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if s.Tokens != nil {
		id, ok := s.Tokens[token]
		if !ok {
			return 0, pkgAuth.ErrInvalidToken
		}
		return id, nil
	}
	return s.ID, nil
}

var _ pkgAuth.Strategy = StrategyStub{}
