package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Skotchmaster/toptunez/internal/service"
	"github.com/Skotchmaster/toptunez/pkg/tokens"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderTOTP          = "X-TOTP-Token"
)

type Identity struct {
	Email string
	Roles []string
}

func (i *Identity) HasRole(role string) bool {
	return i != nil && slices.Contains(i.Roles, role)
}

type MFAChecker interface {
	CheckMFA(ctx context.Context, email, code string) error
}

type Gate struct {
	Tokens *tokens.Issuer
	MFA    MFAChecker
}

// credential extracts the token from "JWT <token>" or "Bearer <token>".
func credential(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "JWT") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the caller. An empty header yields a nil identity and
// no error; a header that is present but unusable is an authentication
// failure, as is a second factor problem.
func (g *Gate) Authenticate(ctx context.Context, authorization, totpCode string) (*Identity, error) {
	if strings.TrimSpace(authorization) == "" {
		return nil, nil
	}

	raw, ok := credential(authorization)
	if !ok {
		return nil, fmt.Errorf("malformed authorization header: %w", service.ErrUnauthenticated)
	}
	claims, err := g.Tokens.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrUnauthenticated, err)
	}

	if g.MFA != nil {
		if err := g.MFA.CheckMFA(ctx, claims.Email, totpCode); err != nil {
			return nil, err
		}
	}
	return &Identity{Email: claims.Email, Roles: claims.Roles}, nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
