package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"recordapi/internal/audit"
)

const (
	UserNameHeader         = "X-User-Name"
	UserOrganisationHeader = "X-User-Organisation"
	// WithoutHistoriesHeader set to a true value saves without writing history entries.
	// Only identified users of a trusted organisation may send it.
	WithoutHistoriesHeader = "X-Without-Histories"
	// UserLocalKey holds the acting user name in Fiber's context locals.
	UserLocalKey = "user_name"
)

// CurrentUser places the acting user, taken from the identity headers set by the
// authenticating proxy, into the request's user context for history attribution.
//
// A request asking to skip history entries is refused with 403 unless the user belongs
// to one of trustedOrgs. With no trusted organisations the switch is always refused.
func CurrentUser(trustedOrgs ...string) fiber.Handler {
	trusted := make(map[string]bool, len(trustedOrgs))
	for _, org := range trustedOrgs {
		if org != "" {
			trusted[org] = true
		}
	}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		name, org := c.Get(UserNameHeader), c.Get(UserOrganisationHeader)
		if name != "" {
			ctx = audit.WithUser(ctx, audit.User{UserName: name, Organisation: org})
			c.Locals(UserLocalKey, name)
		}
		if off, err := strconv.ParseBool(c.Get(WithoutHistoriesHeader)); err == nil && off {
			if name == "" || !trusted[org] {
				return fiber.NewError(fiber.StatusForbidden, "history suppression is not permitted")
			}
			ctx = audit.WithoutHistories(ctx)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
