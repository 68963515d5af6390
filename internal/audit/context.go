package audit

import "context"

type ctxKey int

const (
	suppressKey ctxKey = iota
	userKey
)

// WithoutHistories returns a context in which saves record no history entries.
func WithoutHistories(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressKey, true)
}

// Suppressed reports whether ctx was derived from WithoutHistories.
func Suppressed(ctx context.Context) bool {
	v, _ := ctx.Value(suppressKey).(bool)
	return v
}

// User is the person acting on a record.
type User struct {
	UserName     string
	Organisation string
}

// WithUser attaches the acting user to ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserProvider resolves the acting user for a request.
type UserProvider interface {
	CurrentUser(ctx context.Context) (User, bool)
}

// ContextUsers reads the user placed in the context by WithUser.
type ContextUsers struct{}

func (ContextUsers) CurrentUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	if !ok || u.UserName == "" {
		return User{}, false
	}
	return u, true
}
