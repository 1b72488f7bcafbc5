package task

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newCSVTestStore(t *testing.T) *CSVStore {
	t.Helper()
	store, err := NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	return store
}

func sampleTask(name string) Task {
	return Task{
		Name:        name,
		Description: "desc of " + name,
		Priority:    PriorityHigh,
		Category:    "Work",
		DueDate:     "01-01-2030",
	}
}

func TestCSVStore_ListMissingFile(t *testing.T) {
	store := newCSVTestStore(t)
	tasks, err := store.List(42)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("List on missing file = %d tasks, want 0", len(tasks))
	}
}

func TestCSVStore_RoundTrip(t *testing.T) {
	store := newCSVTestStore(t)

	want := []Task{sampleTask("first"), sampleTask("second"), sampleTask("third")}
	want[1].Priority = PriorityLow
	want[2].Reminder = "02-02-2031 10:30"
	for _, tk := range want {
		if err := store.Append(7, tk); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := store.List(7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("List = %d tasks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("task[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCSVStore_HeaderWrittenOnce(t *testing.T) {
	store := newCSVTestStore(t)
	if err := store.Append(1, sampleTask("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(1, sampleTask("b")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.dir, "task_user_1.csv"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := strings.Count(string(data), "name,description"); n != 1 {
		t.Errorf("header appears %d times, want 1", n)
	}
}

func TestCSVStore_Replace(t *testing.T) {
	store := newCSVTestStore(t)
	for _, name := range []string{"a", "b", "c"} {
		if err := store.Append(3, sampleTask(name)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	replacement := []Task{sampleTask("only")}
	if err := store.Replace(3, replacement); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := store.List(3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Name != "only" {
		t.Errorf("List after Replace = %+v, want single task 'only'", got)
	}
}

func TestCSVStore_ReplaceEmpty(t *testing.T) {
	store := newCSVTestStore(t)
	if err := store.Append(4, sampleTask("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Replace(4, nil); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := store.List(4)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List after empty Replace = %d tasks, want 0", len(got))
	}
}

func TestCSVStore_AppendRejectsInvalid(t *testing.T) {
	store := newCSVTestStore(t)
	bad := sampleTask("bad")
	bad.Priority = "Whenever"
	if err := store.Append(5, bad); err == nil {
		t.Fatal("Append with invalid priority succeeded, want error")
	}
	got, _ := store.List(5)
	if len(got) != 0 {
		t.Errorf("invalid task was persisted: %+v", got)
	}
}

func TestCSVStore_RegisterUserIdempotent(t *testing.T) {
	store := newCSVTestStore(t)
	if err := store.RegisterUser(100, "Alice"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if err := store.RegisterUser(100, "Alice"); err != nil {
		t.Fatalf("RegisterUser repeat: %v", err)
	}
	if err := store.RegisterUser(200, "Bob"); err != nil {
		t.Fatalf("RegisterUser second: %v", err)
	}

	users, err := store.Users()
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Users = %d entries, want 2", len(users))
	}
	if users[0].ID != 100 || users[0].DisplayName != "Alice" {
		t.Errorf("users[0] = %+v, want {100 Alice}", users[0])
	}
}

func TestCSVStore_UsersMissingFile(t *testing.T) {
	store := newCSVTestStore(t)
	users, err := store.Users()
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Users on missing file = %d, want 0", len(users))
	}
}
