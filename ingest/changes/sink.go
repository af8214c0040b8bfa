package changes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/storage"
	"github.com/c360/schemaflow/types"
)

// ChangesCollection is the append-only metadata collection for change
// events.
const ChangesCollection = "data_changes"

// Sink receives detected change events. Persistence is append-only: sinks
// must never rewrite or delete previously published events.
type Sink interface {
	Publish(ctx context.Context, domain string, events []types.ChangeEvent) error
}

// StoreSink appends change events to the data_changes collection of the
// batch's domain.
type StoreSink struct {
	store storage.DocumentStore
}

// NewStoreSink creates a sink writing through a DocumentStore.
func NewStoreSink(store storage.DocumentStore) *StoreSink {
	return &StoreSink{store: store}
}

// Publish implements Sink.
func (s *StoreSink) Publish(ctx context.Context, domain string, events []types.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]map[string]any, len(events))
	for i, ev := range events {
		docs[i] = map[string]any{
			"id":          ev.ID,
			"source":      ev.Source,
			"entity":      ev.Entity,
			"identifier":  ev.Identifier,
			"field":       ev.Field,
			"old_value":   ev.OldValue,
			"new_value":   ev.NewValue,
			"timestamp":   ev.Timestamp,
			"change_type": ev.ChangeType,
		}
		if ev.ChangeMagnitude != nil {
			docs[i]["change_magnitude"] = *ev.ChangeMagnitude
		}
	}

	if _, err := s.store.InsertMany(ctx, domain, ChangesCollection, docs); err != nil {
		return flowerr.Wrap(err, "changes", "Publish", "change event insert")
	}
	return nil
}

// NATSSink publishes change events as JSON messages on
// "schemaflow.changes.<source>.<entity>", fanning them out to downstream
// consumers in addition to durable storage.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// NewNATSSink creates a sink on an established connection. subjectPrefix
// defaults to "schemaflow.changes".
func NewNATSSink(conn *nats.Conn, subjectPrefix string) *NATSSink {
	if subjectPrefix == "" {
		subjectPrefix = "schemaflow.changes"
	}
	return &NATSSink{conn: conn, subject: subjectPrefix}
}

// Publish implements Sink.
func (s *NATSSink) Publish(ctx context.Context, _ string, events []types.ChangeEvent) error {
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return flowerr.Wrap(err, "changes", "Publish", "change event publish")
		}

		payload, err := json.Marshal(ev)
		if err != nil {
			return flowerr.Wrap(err, "changes", "Publish", "change event marshal")
		}

		subject := fmt.Sprintf("%s.%s.%s", s.subject, ev.Source, ev.Entity)
		if err := s.conn.Publish(subject, payload); err != nil {
			return flowerr.WrapTransient(err, "changes", "Publish", "change event publish")
		}
	}
	return nil
}

// MultiSink fans one publish out to several sinks, stopping at the first
// failure.
type MultiSink []Sink

// Publish implements Sink.
func (m MultiSink) Publish(ctx context.Context, domain string, events []types.ChangeEvent) error {
	for _, sink := range m {
		if err := sink.Publish(ctx, domain, events); err != nil {
			return err
		}
	}
	return nil
}
