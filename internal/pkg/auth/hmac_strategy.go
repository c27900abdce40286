package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const tokenVersion = "op1"

// HMACStrategy signs "op1.<operator>.<expires>" with HMAC-SHA256.
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy. Tokens default to a 12 hour shift.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: now}
}

// IssueToken returns a signed token for the operator.
func (s *HMACStrategy) IssueToken(operatorID int64) (string, error) {
	if operatorID <= 0 {
		return "", fmt.Errorf("operator id must be positive, got %d", operatorID)
	}
	expires := s.now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s.%d.%d", tokenVersion, operatorID, expires)
	return payload + "." + s.sign(payload), nil
}

// ParseToken verifies the signature and expiry and returns the operator id.
func (s *HMACStrategy) ParseToken(token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0] != tokenVersion {
		return 0, ErrInvalidToken
	}

	payload := strings.Join(parts[:3], ".")
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[3])) {
		return 0, ErrInvalidToken
	}

	operatorID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || operatorID <= 0 {
		return 0, ErrInvalidToken
	}
	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !time.Unix(expires, 0).After(s.now()) {
		return 0, ErrInvalidToken
	}
	return operatorID, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac"
}

func (s *HMACStrategy) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
