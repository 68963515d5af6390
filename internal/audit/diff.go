package audit

import (
	"fmt"
	"strings"
)

// PhotoKeysField is the synthetic field that tracks the record's photo list.
const PhotoKeysField = "photo_keys"

// CreatedKey is the synthetic changes key written on record creation.
const CreatedKey = "basemodel"

// DefaultFields are tracked on every record whether or not the form declares them.
var DefaultFields = []string{"flag", "flag_message", "reunited", "reunited_message"}

// State is the auditable view of a record at one point in time.
type State struct {
	Values    map[string]any
	PhotoKeys []string
}

// Diff compares prior and pending over fields plus the photo key list.
// Values are compared after trimming whitespace, and nil is treated as the empty string.
func Diff(prior, pending State, fields []string) map[string]Change {
	changes := make(map[string]Change)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f == PhotoKeysField || seen[f] {
			continue
		}
		seen[f] = true
		from, to := prior.Values[f], pending.Values[f]
		if normalize(from) == normalize(to) {
			continue
		}
		changes[f] = Change{Kind: ValueChange, From: from, To: to}
	}
	if c, ok := DiffKeys(prior.PhotoKeys, pending.PhotoKeys); ok {
		changes[PhotoKeysField] = c
	}
	return changes
}

// DiffKeys reports the keys added to and deleted from a list, preserving list order.
func DiffKeys(prior, pending []string) (Change, bool) {
	before := make(map[string]bool, len(prior))
	for _, k := range prior {
		before[k] = true
	}
	after := make(map[string]bool, len(pending))
	for _, k := range pending {
		after[k] = true
	}
	c := Change{Kind: KeysChange}
	for _, k := range pending {
		if !before[k] {
			c.Added = append(c.Added, k)
		}
	}
	for _, k := range prior {
		if !after[k] {
			c.Deleted = append(c.Deleted, k)
		}
	}
	return c, len(c.Added) > 0 || len(c.Deleted) > 0
}

func normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []string:
		return strings.Join(t, ",")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
