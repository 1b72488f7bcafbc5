package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dkrasnov/zadachnik/task"
	"github.com/dkrasnov/zadachnik/transport"
)

// Prompts and notices, one per flow step. Validation failures re-send the
// failing step's notice and leave the session where it was.
const (
	msgAddIntro       = "Let's add a new task. Follow the prompts."
	promptName        = "Enter the task name:"
	promptDescription = "Enter the task description:"
	promptPriority    = "Enter the task priority (High, Medium, Low):"
	promptDueDate     = "Enter the due date (format: DD-MM-YYYY):"
	msgTaskAdded      = "Task added!"
	msgTaskUpdated    = "Task updated!"

	msgBadPriority = "Invalid priority! Please choose from: High, Medium, Low."
	msgBadDate     = "Invalid date format! Use DD-MM-YYYY."
	msgBadDateTime = "Invalid time format! Please use DD-MM-YYYY HH:MM."
	msgBadNumber   = "Please enter a valid task number."
	msgNumberRange = "Invalid task number. Try again."
	msgMenuExpired = "That menu is no longer active. Run the command again."

	msgNoTasks        = "You have no tasks."
	msgStorageFailure = "Something went wrong, please try again later."

	chooseDelete      = "Choose a task to delete:"
	chooseEdit        = "Choose a task to edit:"
	chooseField       = "What do you want to edit?"
	promptRemindPick  = "Enter the number of the task to set a reminder for:"
	promptRemindTime  = "Enter the reminder date and time (format: DD-MM-YYYY HH:MM):"
)

func promptCategory() string {
	return fmt.Sprintf("Enter the task category (%s):", strings.Join(task.Categories, ", "))
}

func msgBadCategory() string {
	return fmt.Sprintf("Invalid category! Please choose from: %s.", strings.Join(task.Categories, ", "))
}

// Engine drives dialogue flows: it owns the session store, prompts users
// through the gateway, and commits completed drafts through the task store.
type Engine struct {
	store    task.Store
	gw       transport.Gateway
	sessions *Sessions
	log      *slog.Logger
}

// NewEngine creates an engine with an empty session store.
func NewEngine(store task.Store, gw transport.Gateway, logger *slog.Logger) *Engine {
	return &Engine{
		store:    store,
		gw:       gw,
		sessions: NewSessions(),
		log:      logger,
	}
}

// Active reports whether userID has a flow in progress.
func (e *Engine) Active(userID int64) bool { return e.sessions.Active(userID) }

// StartAdd begins the add flow: five prompted fields, then commit.
func (e *Engine) StartAdd(ctx context.Context, userID int64) error {
	e.sessions.Start(&Session{UserID: userID, Kind: FlowAdd})
	e.send(ctx, userID, msgAddIntro)
	e.send(ctx, userID, promptName)
	return nil
}

// StartDelete snapshots the collection and offers each task as an option.
func (e *Engine) StartDelete(ctx context.Context, userID int64) error {
	tasks, err := e.listOrFail(ctx, userID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		e.send(ctx, userID, msgNoTasks)
		return nil
	}
	e.sessions.Start(&Session{UserID: userID, Kind: FlowDelete, Snapshot: tasks})
	return e.gw.SendOptions(ctx, userID, chooseDelete, taskOptions(tasks, "delete"))
}

// StartEdit snapshots the collection and offers each task as an option;
// picking one leads to a field menu, then a single value prompt.
func (e *Engine) StartEdit(ctx context.Context, userID int64) error {
	tasks, err := e.listOrFail(ctx, userID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		e.send(ctx, userID, msgNoTasks)
		return nil
	}
	e.sessions.Start(&Session{UserID: userID, Kind: FlowEdit, Snapshot: tasks})
	return e.gw.SendOptions(ctx, userID, chooseEdit, taskOptions(tasks, "choose_task"))
}

// StartRemind lists tasks by number and asks for a position, then a
// date-time for the reminder.
func (e *Engine) StartRemind(ctx context.Context, userID int64) error {
	tasks, err := e.listOrFail(ctx, userID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		e.send(ctx, userID, msgNoTasks)
		return nil
	}
	e.sessions.Start(&Session{UserID: userID, Kind: FlowRemind, Snapshot: tasks})

	var b strings.Builder
	b.WriteString("<b>Pick a task to set a reminder for:</b>\n\n")
	for i, t := range tasks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t.Name)
	}
	e.send(ctx, userID, b.String())
	e.send(ctx, userID, promptRemindPick)
	return nil
}

// listOrFail loads the user's tasks, reporting storage failures to the
// user generically.
func (e *Engine) listOrFail(ctx context.Context, userID int64) ([]task.Task, error) {
	tasks, err := e.store.List(userID)
	if err != nil {
		e.failStorage(ctx, userID, err)
		return nil, err
	}
	return tasks, nil
}

// failStorage logs a storage error, tells the user something went wrong,
// and abandons any active flow.
func (e *Engine) failStorage(ctx context.Context, userID int64, err error) {
	e.log.Error("storage failure", "user", userID, "error", err)
	e.send(ctx, userID, msgStorageFailure)
	e.sessions.End(userID)
}

// send delivers a message, logging delivery failures. Prompt delivery is
// fire-and-forget; the flow state is not rolled back on a failed send.
func (e *Engine) send(ctx context.Context, userID int64, text string) {
	if err := e.gw.Send(ctx, userID, text); err != nil {
		e.log.Error("send failed", "user", userID, "error", err)
	}
}

// taskOptions builds one option per task, with 1-based positions encoded
// in the callback data.
func taskOptions(tasks []task.Task, action string) []transport.Option {
	opts := make([]transport.Option, 0, len(tasks))
	for i, t := range tasks {
		opts = append(opts, transport.Option{
			Label: t.Name,
			Data:  fmt.Sprintf("%s_%d", action, i+1),
		})
	}
	return opts
}

// pick resolves a 1-based position against the session snapshot.
func pick(snapshot []task.Task, pos int) (task.Task, error) {
	if pos < 1 || pos > len(snapshot) {
		return task.Task{}, ErrInvalidSelection
	}
	return snapshot[pos-1], nil
}
