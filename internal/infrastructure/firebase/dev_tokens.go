package firebase

import (
	"context"
	"fmt"
	"strings"
)

// DevTokenPrefix marks tokens that carry the uid in clear text.
const DevTokenPrefix = "dev:"

type tokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// DevTokenVerifier accepts "dev:<uid>" tokens and hands everything else to
// next. It is only wired in development; next may be nil when no Firebase
// project is configured.
type DevTokenVerifier struct {
	next tokenVerifier
}

func NewDevTokenVerifier(next tokenVerifier) *DevTokenVerifier {
	return &DevTokenVerifier{next: next}
}

func (d *DevTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if strings.HasPrefix(token, DevTokenPrefix) {
		uid := strings.TrimSpace(strings.TrimPrefix(token, DevTokenPrefix))
		if uid == "" {
			return "", fmt.Errorf("empty uid in dev token")
		}
		return uid, nil
	}
	if d.next == nil {
		return "", fmt.Errorf("only dev tokens are accepted")
	}
	return d.next.VerifyToken(ctx, token)
}
