package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// User is one row of the users table. StudentInfo and LastKnownMarks
// are json columns, callers decode them.
type User struct {
	ID                   int64
	CollegeID            string
	UniversityID         string
	StudentInfo          string
	LastKnownMarks       string
	NotificationsEnabled bool
}

const userColumns = `id, college_id, university_id, student_info, last_known_marks, notifications_enabled`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.CollegeID, &u.UniversityID,
		&u.StudentInfo, &u.LastKnownMarks, &u.NotificationsEnabled,
	)
	return u, err
}

const createUser = `INSERT INTO users (id) VALUES (?) ON CONFLICT (id) DO NOTHING`

func (q *Queries) CreateUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, createUser, id)
	return err
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const setRegistration = `UPDATE users SET college_id = ?, university_id = ?, student_info = ? WHERE id = ?`

type SetRegistrationParams struct {
	CollegeID    string
	UniversityID string
	StudentInfo  string
	ID           int64
}

func (q *Queries) SetRegistration(ctx context.Context, arg SetRegistrationParams) error {
	_, err := q.db.ExecContext(ctx, setRegistration,
		arg.CollegeID, arg.UniversityID, arg.StudentInfo, arg.ID)
	return err
}

const setMarks = `UPDATE users SET last_known_marks = ? WHERE id = ?`

func (q *Queries) SetMarks(ctx context.Context, marks string, id int64) error {
	_, err := q.db.ExecContext(ctx, setMarks, marks, id)
	return err
}

const setNotificationsEnabled = `UPDATE users SET notifications_enabled = ? WHERE id = ?`

func (q *Queries) SetNotificationsEnabled(ctx context.Context, enabled bool, id int64) error {
	_, err := q.db.ExecContext(ctx, setNotificationsEnabled, enabled, id)
	return err
}

const listNotifiable = `SELECT ` + userColumns + ` FROM users
WHERE university_id != '' AND notifications_enabled = 1
ORDER BY id`

func (q *Queries) ListNotifiable(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listNotifiable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.ID, &u.CollegeID, &u.UniversityID,
			&u.StudentInfo, &u.LastKnownMarks, &u.NotificationsEnabled,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}
