// Package auth verifies the bearer tokens issued by the platform's identity
// service and threads the authenticated handle through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const contextKeyHandle contextKey = "user_handle"

// Options controls signature verification and claim handling.
type Options struct {
	Secret         []byte
	Issuer         string
	Audience       []string
	MaxSkewSeconds int
}

// Verifier validates HS256 bearer tokens.
type Verifier struct {
	opts Options
}

// NewVerifier builds a Verifier; the signing secret is mandatory.
func NewVerifier(opts Options) (*Verifier, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("auth: signing secret required")
	}
	return &Verifier{opts: opts}, nil
}

// Verify parses and validates the raw token, returning the subject handle.
func (v *Verifier) Verify(raw string) (string, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}
	for _, aud := range v.opts.Audience {
		parserOpts = append(parserOpts, jwt.WithAudience(aud))
	}
	if v.opts.MaxSkewSeconds > 0 {
		parserOpts = append(parserOpts, jwt.WithLeeway(time.Duration(v.opts.MaxSkewSeconds)*time.Second))
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return v.opts.Secret, nil
	}, parserOpts...)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", errors.New("auth: token missing subject")
	}
	return subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated handle on the context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		handle, err := v.Verify(strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyHandle, handle)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleFromContext returns the authenticated handle, if any.
func HandleFromContext(ctx context.Context) (string, bool) {
	handle, ok := ctx.Value(contextKeyHandle).(string)
	return handle, ok && handle != ""
}

// Sign mints a token for the handle. Tests and local tooling use it; the
// production issuer lives elsewhere.
func Sign(secret []byte, issuer, handle string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   handle,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
