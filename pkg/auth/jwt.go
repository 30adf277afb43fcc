package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const schedulerAudience = "devlink-notifier"

var ErrInvalidToken = errors.New("invalid scheduler token")

// SchedulerClaims identifies the external trigger calling the job endpoints.
type SchedulerClaims struct {
	jwt.RegisteredClaims
}

// SchedulerTokens issues and validates HS256 tokens shared with the cron trigger.
type SchedulerTokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewSchedulerTokens(secret, issuer string) *SchedulerTokens {
	return &SchedulerTokens{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

func (s *SchedulerTokens) Issue(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := SchedulerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{schedulerAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign scheduler token: %w", err)
	}
	return token, nil
}

func (s *SchedulerTokens) Validate(tokenString string) (*SchedulerClaims, error) {
	claims := &SchedulerClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(schedulerAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
