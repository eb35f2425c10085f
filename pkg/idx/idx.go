// Package idx hands out lexicographically sortable ULID identifiers. They are
// used as user ids and as request ids when the caller does not supply one.
package idx

import (
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// Zero is the empty ID. Only useful as a placeholder.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// New returns an ID stamped with the current UTC time. The default ulid
// entropy source is monotonic and safe for concurrent use.
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns an ID stamped with t, handy for tests that care about order.
func NewAt(t time.Time) ID {
	u := ulid.MustNew(ulid.Timestamp(t.UTC()), ulid.DefaultEntropy())
	return ID(u.String())
}

// Parse validates s as a canonical ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time extracts the embedded timestamp, or the zero time for invalid IDs.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(id.String())
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
