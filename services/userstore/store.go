// Package userstore persists chat user registrations and the last
// marks snapshot seen for each of them.
package userstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"stdmark-backend/lib/marks"
	"stdmark-backend/services/userstore/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Store serializes all access behind one mutex. Write volume is a
// handful of rows per user per day, contention is not a concern and
// the single writer keeps sqlite happy.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) *Store {
	return &Store{
		db:  database,
		qry: db.New(database),
	}
}

// GetOrCreate returns the row for a chat user, inserting a blank one
// on first contact.
func (s *Store) GetOrCreate(ctx context.Context, id int64) (db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.qry.CreateUser(ctx, id)
	if err != nil {
		return db.User{}, err
	}
	return s.qry.GetUser(ctx, id)
}

// SaveRegistration records which college and university id the user
// follows, along with the student info extracted at registration.
func (s *Store) SaveRegistration(ctx context.Context, id int64, collegeID, universityID string, info marks.StudentInfo) error {
	encoded, err := json.Marshal(info)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.qry.CreateUser(ctx, id)
	if err != nil {
		return err
	}
	return s.qry.SetRegistration(ctx, db.SetRegistrationParams{
		CollegeID:    collegeID,
		UniversityID: universityID,
		StudentInfo:  string(encoded),
		ID:           id,
	})
}

// UpdateMarks replaces the stored snapshot. Records are stored in
// canonical order so snapshots of the same result set compare equal.
func (s *Store) UpdateMarks(ctx context.Context, id int64, records []marks.MarkRecord) error {
	marks.SortCanonical(records)
	encoded, err := json.Marshal(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qry.SetMarks(ctx, string(encoded), id)
}

func (s *Store) SetNotificationsEnabled(ctx context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qry.SetNotificationsEnabled(ctx, enabled, id)
}

// ListNotifiable returns every registered user with notifications on,
// the watcher sweeps over this set.
func (s *Store) ListNotifiable(ctx context.Context) ([]db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qry.ListNotifiable(ctx)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qry.DeleteUser(ctx, id)
}

// AdminGetMarksJSON exposes the raw stored snapshot for operator
// inspection.
func (s *Store) AdminGetMarksJSON(ctx context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.qry.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return user.LastKnownMarks, nil
}

// AdminSetMarksJSON overwrites the stored snapshot from operator
// supplied json. The payload must decode as a mark list, anything
// else is rejected before it can poison future diffs.
func (s *Store) AdminSetMarksJSON(ctx context.Context, id int64, raw string) error {
	var records []marks.MarkRecord
	err := json.Unmarshal([]byte(raw), &records)
	if err != nil {
		return fmt.Errorf("payload is not a mark list: %w", err)
	}
	return s.UpdateMarks(ctx, id, records)
}

// MarksOf decodes a user's stored snapshot. A corrupt column logs a
// warning and reads as empty, the next successful fetch rewrites it.
func MarksOf(ctx context.Context, user db.User) []marks.MarkRecord {
	var records []marks.MarkRecord
	err := json.Unmarshal([]byte(user.LastKnownMarks), &records)
	if err != nil {
		slog.WarnContext(ctx, "failed to decode stored marks", "user", user.ID, "err", err)
		return nil
	}
	return records
}

// InfoOf decodes a user's stored student info, same failure policy as
// MarksOf.
func InfoOf(ctx context.Context, user db.User) marks.StudentInfo {
	var info marks.StudentInfo
	err := json.Unmarshal([]byte(user.StudentInfo), &info)
	if err != nil {
		slog.WarnContext(ctx, "failed to decode stored student info", "user", user.ID, "err", err)
		return marks.StudentInfo{}
	}
	return info
}
