package task

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	user_id     INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL,
	category    TEXT NOT NULL,
	due_date    TEXT NOT NULL,
	reminder    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, position);

CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY,
	display_name TEXT NOT NULL
);
`

// SQLiteStore persists task collections in a SQLite database. It offers the
// same contract as CSVStore for deployments that prefer a single file over
// a directory of CSVs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists. The caller is responsible for calling Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// List returns the user's tasks in position order.
func (s *SQLiteStore) List(userID int64) ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT name, description, priority, category, due_date, reminder
		FROM tasks WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, &StorageError{Op: "list tasks", Err: err}
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.Name, &t.Description, &t.Priority, &t.Category, &t.DueDate, &t.Reminder); err != nil {
			return nil, &StorageError{Op: "scan task", Err: err}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

// Append adds one task at the end of the user's collection.
func (s *SQLiteStore) Append(userID int64, t Task) error {
	if err := Validate(t); err != nil {
		return err
	}
	var next int
	if err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position)+1, 0) FROM tasks WHERE user_id = ?`, userID,
	).Scan(&next); err != nil {
		return &StorageError{Op: "next position", Err: err}
	}
	_, err := s.db.Exec(`
		INSERT INTO tasks (id, user_id, position, name, description, priority, category, due_date, reminder)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), userID, next,
		t.Name, t.Description, t.Priority, t.Category, t.DueDate, t.Reminder,
	)
	if err != nil {
		return &StorageError{Op: "insert task", Err: err}
	}
	return nil
}

// Replace rewrites the user's collection inside one transaction.
func (s *SQLiteStore) Replace(userID int64, tasks []Task) error {
	for _, t := range tasks {
		if err := Validate(t); err != nil {
			return err
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Op: "begin replace", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks WHERE user_id = ?`, userID); err != nil {
		return &StorageError{Op: "clear tasks", Err: err}
	}
	for i, t := range tasks {
		if _, err := tx.Exec(`
			INSERT INTO tasks (id, user_id, position, name, description, priority, category, due_date, reminder)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			uuid.NewString(), userID, i,
			t.Name, t.Description, t.Priority, t.Category, t.DueDate, t.Reminder,
		); err != nil {
			return &StorageError{Op: "insert task", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit replace", Err: err}
	}
	return nil
}

// RegisterUser inserts the user unless the id already exists.
func (s *SQLiteStore) RegisterUser(id int64, displayName string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO users (id, display_name) VALUES (?, ?)`, id, displayName,
	)
	if err != nil {
		return &StorageError{Op: "register user", Err: err}
	}
	return nil
}

// Users returns every registered user.
func (s *SQLiteStore) Users() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, display_name FROM users ORDER BY id`)
	if err != nil {
		return nil, &StorageError{Op: "list users", Err: err}
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.DisplayName); err != nil {
			return nil, &StorageError{Op: "scan user", Err: err}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list users", Err: err}
	}
	return users, nil
}
