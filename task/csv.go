package task

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{"name", "description", "priority", "category", "due_date", "reminder"}

// CSVStore keeps each user's tasks in a headered CSV file
// (task_user_<id>.csv) under a data directory, plus a headerless
// users.csv registry mapping user id to display name.
type CSVStore struct {
	dir string
}

// NewCSVStore ensures dir exists and returns a store rooted there.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &CSVStore{dir: dir}, nil
}

func (s *CSVStore) taskPath(userID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("task_user_%d.csv", userID))
}

func (s *CSVStore) usersPath() string {
	return filepath.Join(s.dir, "users.csv")
}

// List returns the user's tasks. A missing file means the user simply has
// no tasks yet.
func (s *CSVStore) List(userID int64) ([]Task, error) {
	f, err := os.Open(s.taskPath(userID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "open tasks", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		if err == io.EOF {
			return nil, nil
		}
		return nil, &StorageError{Op: "read header", Err: err}
	}

	var tasks []Task
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &StorageError{Op: "read row", Err: err}
		}
		if len(row) < len(csvHeader) {
			continue
		}
		tasks = append(tasks, Task{
			Name:        row[0],
			Description: row[1],
			Priority:    row[2],
			Category:    row[3],
			DueDate:     row[4],
			Reminder:    row[5],
		})
	}
	return tasks, nil
}

// Append adds one task, writing the header first if the file is new.
func (s *CSVStore) Append(userID int64, t Task) error {
	if err := Validate(t); err != nil {
		return err
	}
	path := s.taskPath(userID)
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageError{Op: "append tasks", Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			return &StorageError{Op: "write header", Err: err}
		}
	}
	if err := w.Write(taskRow(t)); err != nil {
		return &StorageError{Op: "write row", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &StorageError{Op: "flush tasks", Err: err}
	}
	return nil
}

// Replace rewrites the user's whole collection. The new content lands in a
// temp file first and is moved into place, so a crash mid-write cannot
// leave a half-written collection.
func (s *CSVStore) Replace(userID int64, tasks []Task) error {
	for _, t := range tasks {
		if err := Validate(t); err != nil {
			return err
		}
	}
	f, err := os.CreateTemp(s.dir, "tasks-*.tmp")
	if err != nil {
		return &StorageError{Op: "create temp", Err: err}
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return &StorageError{Op: "write header", Err: err}
	}
	for _, t := range tasks {
		if err := w.Write(taskRow(t)); err != nil {
			f.Close()
			return &StorageError{Op: "write row", Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return &StorageError{Op: "flush tasks", Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageError{Op: "close temp", Err: err}
	}
	if err := os.Rename(tmp, s.taskPath(userID)); err != nil {
		return &StorageError{Op: "replace tasks", Err: err}
	}
	return nil
}

// RegisterUser appends the user to users.csv unless the id is already there.
func (s *CSVStore) RegisterUser(id int64, displayName string) error {
	users, err := s.Users()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID == id {
			return nil
		}
	}
	f, err := os.OpenFile(s.usersPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageError{Op: "append users", Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{strconv.FormatInt(id, 10), displayName}); err != nil {
		return &StorageError{Op: "write user", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &StorageError{Op: "flush users", Err: err}
	}
	return nil
}

// Users returns the full registry, empty if nobody registered yet.
func (s *CSVStore) Users() ([]User, error) {
	f, err := os.Open(s.usersPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "open users", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var users []User
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &StorageError{Op: "read user", Err: err}
		}
		if len(row) < 2 {
			continue
		}
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		users = append(users, User{ID: id, DisplayName: row[1]})
	}
	return users, nil
}

func taskRow(t Task) []string {
	return []string{t.Name, t.Description, t.Priority, t.Category, t.DueDate, t.Reminder}
}
