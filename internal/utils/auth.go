package utils

import "context"

type contextKey string

const clientIDKey contextKey = "client_id"

// SetClientContext records the authenticated bridge client (called by middleware)
func SetClientContext(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// GetClientIDFromContext retrieves the client id safely
func GetClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}
