package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
)

// callerID short digest of the bearer token in ctx; empty when anonymous.
// The token itself never ends up in a key or a log line.
func callerID(ctx context.Context) string {
	tok := backend.AuthToken(ctx)
	if tok == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:8])
}

// viewKey identifies one console view of one caller under prefix. Empty when
// the request has neither a session nor a token.
func viewKey(ctx context.Context, prefix, session string) string {
	caller := callerID(ctx)
	if session == "" && caller == "" {
		return ""
	}
	return strings.Join([]string{prefix, caller, session}, ":")
}
