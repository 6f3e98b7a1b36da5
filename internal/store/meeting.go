// Package store persists records of scheduled meetings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mr-Amresh/meeting-scheduler/internal/database"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/tracing"
)

// MeetingStore keeps one row per calendar event.
type MeetingStore struct {
	db     *sql.DB
	driver string
}

// NewMeetingStore creates a store over db opened with driver.
func NewMeetingStore(db *sql.DB, driver string) *MeetingStore {
	return &MeetingStore{db: db, driver: driver}
}

// Save upserts the record for eventID from the committed proposal.
func (s *MeetingStore) Save(ctx context.Context, eventID string, p *model.MeetingProposal) (err error) {
	ctx, span := tracing.Start(ctx, "store.save_meeting", attribute.String("event_id", eventID))
	defer func() { tracing.End(span, err) }()

	attendees := p.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	encoded, err := json.Marshal(attendees)
	if err != nil {
		return fmt.Errorf("encode attendees: %w", err)
	}

	title := p.Title
	if title == "" {
		title = model.DefaultTitle
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO meetings (event_id, title, start_time, start_utc, description, attendees, agenda, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_id) DO UPDATE SET
		   title = excluded.title,
		   start_time = excluded.start_time,
		   start_utc = excluded.start_utc,
		   description = excluded.description,
		   attendees = excluded.attendees,
		   agenda = excluded.agenda`),
		eventID, title, p.StartTime.Format(time.RFC3339), p.StartTime.UTC().Format(time.RFC3339), p.Description, string(encoded), p.Agenda,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert meeting record: %w", err)
	}
	return nil
}

// Get returns the record for eventID, or nil when none exists.
func (s *MeetingStore) Get(ctx context.Context, eventID string) (*model.MeetingRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT event_id, title, start_time, description, attendees, agenda, created_at
		 FROM meetings WHERE event_id = ?`),
		eventID,
	)
	rec, err := scanMeeting(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query meeting record: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, latest start instant first. start_time
// keeps each proposal's own offset, so ordering uses start_utc.
func (s *MeetingStore) List(ctx context.Context, limit, offset int) ([]model.MeetingRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT event_id, title, start_time, description, attendees, agenda, created_at
		 FROM meetings
		 ORDER BY start_utc DESC, event_id
		 LIMIT ? OFFSET ?`),
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query meeting records: %w", err)
	}
	defer rows.Close()

	var records []model.MeetingRecord
	for rows.Next() {
		rec, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *MeetingStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM meetings").Scan(&n); err != nil {
		return 0, fmt.Errorf("count meeting records: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *MeetingStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func scanMeeting(scanner interface{ Scan(...any) error }) (*model.MeetingRecord, error) {
	var rec model.MeetingRecord
	var attendees, createdAt string

	err := scanner.Scan(
		&rec.EventID, &rec.Title, &rec.StartTime, &rec.Description,
		&attendees, &rec.Agenda, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(attendees), &rec.Attendees); err != nil {
		return nil, fmt.Errorf("decode attendees: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *MeetingStore) rebind(query string) string {
	if s.driver != database.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
