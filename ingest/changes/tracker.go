// Package changes detects value changes on watched fields between a stored
// record and its incoming replacement. Detection is a pure comparison; the
// tracker never consults its own past events, only current stored state.
package changes

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/c360/schemaflow/typedetect"
	"github.com/c360/schemaflow/types"
)

// ChangeTypeUpdate is the change_type for a watched field whose value moved.
const ChangeTypeUpdate = "update"

// watchLists names the fields monitored per source. Sources without an entry
// fall back to defaultWatchList.
var watchLists = map[string][]string{
	"ecommerce":   {"price", "discount", "stock", "rating"},
	"hr":          {"salary", "department", "job_title"},
	"iot_sensors": {"reading", "status"},
	"financial":   {"balance", "amount"},
}

var defaultWatchList = []string{"price", "discount", "score", "rating", "salary"}

// Tracker compares records field by field. Zero value is not usable; create
// with NewTracker.
type Tracker struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Tracker.
type Option func(*Tracker)

// withClock overrides the time source, for tests.
func withClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// withIDs overrides event ID generation, for tests.
func withIDs(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// NewTracker creates a change tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WatchList returns the fields monitored for a source.
func WatchList(source string) []string {
	if list, ok := watchLists[source]; ok {
		return list
	}
	return defaultWatchList
}

// Detect compares the stored record against the incoming one over the
// source's watch list and emits one event per changed field. A field absent
// from either side is skipped: only value-to-value transitions count.
func (t *Tracker) Detect(source, entity string, identifier map[string]any, stored map[string]any, incoming *types.Record) []types.ChangeEvent {
	var events []types.ChangeEvent

	for _, field := range WatchList(source) {
		oldValue, hadOld := stored[field]
		newValue, hasNew := incoming.Get(field)
		if !hadOld || !hasNew {
			continue
		}
		if typedetect.Stringify(oldValue) == typedetect.Stringify(newValue) {
			continue
		}

		events = append(events, types.ChangeEvent{
			ID:              t.newID(),
			Source:          source,
			Entity:          entity,
			Identifier:      identifier,
			Field:           field,
			OldValue:        oldValue,
			NewValue:        newValue,
			Timestamp:       t.now().UTC(),
			ChangeType:      ChangeTypeUpdate,
			ChangeMagnitude: Magnitude(oldValue, newValue),
		})
	}
	return events
}

// Magnitude returns the percent change between two numeric values, nil when
// either side does not parse as a number or the old value is zero.
func Magnitude(oldValue, newValue any) *float64 {
	oldNum, err := strconv.ParseFloat(typedetect.Stringify(oldValue), 64)
	if err != nil {
		return nil
	}
	newNum, err := strconv.ParseFloat(typedetect.Stringify(newValue), 64)
	if err != nil {
		return nil
	}
	if oldNum == 0 {
		return nil
	}
	m := (newNum - oldNum) / oldNum * 100
	return &m
}
