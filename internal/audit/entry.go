package audit

import (
	"context"
	"time"
)

// DatetimeLayout formats history timestamps, e.g. 2010-01-14 14:05:00UTC.
const DatetimeLayout = "2006-01-02 15:04:05UTC"

// Entry is one immutable item of a record's history log.
type Entry struct {
	Changes          map[string]Change `json:"changes"`
	Datetime         *string           `json:"datetime"`
	UserName         string            `json:"user_name"`
	UserOrganisation string            `json:"user_organisation"`
}

// FormatDatetime renders t in UTC using DatetimeLayout.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(DatetimeLayout)
}

// Author identifies the record for attribution fallbacks.
type Author struct {
	CreatedBy           string
	CreatedOrganisation string
	DefaultOrganisation string
}

// CreationEntry is written once when a record is first saved. It has no datetime; the
// author is the record's creator and the organisation comes from the acting user when known.
func CreationEntry(ctx context.Context, users UserProvider, a Author) Entry {
	name, org := a.CreatedBy, a.CreatedOrganisation
	if u, ok := users.CurrentUser(ctx); ok {
		if name == "" {
			name = u.UserName
		}
		if u.Organisation != "" {
			org = u.Organisation
		}
	}
	if org == "" {
		org = a.DefaultOrganisation
	}
	return Entry{
		Changes:          map[string]Change{CreatedKey: {Kind: Created}},
		UserName:         name,
		UserOrganisation: org,
	}
}

// UpdateEntry wraps changes with the acting user and save time.
// It returns false when there is nothing to record.
func UpdateEntry(ctx context.Context, users UserProvider, a Author, changes map[string]Change, now time.Time) (Entry, bool) {
	if len(changes) == 0 {
		return Entry{}, false
	}
	name, org := a.CreatedBy, a.CreatedOrganisation
	if u, ok := users.CurrentUser(ctx); ok {
		name, org = u.UserName, u.Organisation
	}
	if org == "" {
		org = a.DefaultOrganisation
	}
	dt := FormatDatetime(now)
	return Entry{
		Changes:          changes,
		Datetime:         &dt,
		UserName:         name,
		UserOrganisation: org,
	}, true
}

// Prepend returns a new log with e in front; the input slice is not modified.
func Prepend(log []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(log)+1)
	out = append(out, e)
	return append(out, log...)
}
