package auth

import "context"

type userIDContextKey struct{}

// ContextWithUserID stores the logged-in user id on the context. Set by the
// auth middleware after a successful session check.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey{}).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
