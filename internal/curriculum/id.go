package curriculum

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"
)

// ID identifies a curriculum node. Backend-assigned identifiers are Saved;
// identifiers minted on the client before the first save are Draft and must
// not be treated as stable across a save round-trip.
//
// Both kinds travel as plain JSON numbers. Decoding always yields a Saved ID.
type ID struct {
	value int64
	draft bool
}

// Saved wraps an identifier assigned by the backend.
func Saved(v int64) ID {
	return ID{value: v}
}

// Draft wraps a client-side placeholder identifier.
func Draft(v int64) ID {
	return ID{value: v, draft: true}
}

var lastDraft atomic.Int64

// NewDraftID returns a fresh placeholder: unix milliseconds plus a random
// suffix below 10000, bumped so that ids minted in one process never repeat.
func NewDraftID() ID {
	candidate := time.Now().UnixMilli() + rand.Int64N(10000)
	for {
		prev := lastDraft.Load()
		next := candidate
		if next <= prev {
			next = prev + 1
		}
		if lastDraft.CompareAndSwap(prev, next) {
			return Draft(next)
		}
	}
}

// Int64 returns the raw numeric value.
func (id ID) Int64() int64 { return id.value }

// IsDraft reports whether the id is a client placeholder.
func (id ID) IsDraft() bool { return id.draft }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id.value == 0 && !id.draft }

func (id ID) String() string {
	if id.draft {
		return "draft:" + strconv.FormatInt(id.value, 10)
	}
	return strconv.FormatInt(id.value, 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(id.value, 10)), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("curriculum id: %w", err)
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("curriculum id %q: %w", n, err)
		}
		v = int64(f)
	}
	*id = Saved(v)
	return nil
}

// ParseID parses a decimal identifier as a Saved ID.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return Saved(v), nil
}
