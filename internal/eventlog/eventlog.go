// Package eventlog is an append-only audit trail of editor actions.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypePassageSaved = "PassageSaved"
	TypeZoneRemoved  = "ZoneRemoved"
)

type Event struct {
	Offset    int64  `json:"offset"`
	Actor     string `json:"actor"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// Appender is what the editor needs; *Repo satisfies it.
type Appender interface {
	Append(ctx context.Context, e Event) error
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (actor, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Actor, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// List returns the newest events for key, newest first.
func (r *Repo) List(ctx context.Context, key string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", actor, typ, key, data, created_at FROM event_log
		 WHERE key=$1 ORDER BY "offset" DESC LIMIT $2`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Actor, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// NewEvent marshals data into an Event. Marshal failures are recorded as an
// empty object so auditing never blocks a save.
func NewEvent(actor, typ, key string, data any) Event {
	buf, err := json.Marshal(data)
	if err != nil {
		buf = []byte("{}")
	}
	return Event{Actor: actor, Type: typ, Key: key, DataJSON: string(buf)}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Append(context.Context, Event) error { return nil }
