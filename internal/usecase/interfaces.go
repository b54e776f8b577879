package usecase

import "context"

// TokenVerifier turns a bearer token into the caller's uid.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
