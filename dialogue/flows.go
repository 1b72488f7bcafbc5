package dialogue

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkrasnov/zadachnik/task"
	"github.com/dkrasnov/zadachnik/transport"
)

// Add flow steps, in prompt order.
const (
	stepName = iota
	stepDescription
	stepPriority
	stepCategory
	stepDueDate
)

// Remind flow steps.
const (
	stepRemindPick = iota
	stepRemindTime
)

// editFields maps field keys to their menu labels, in menu order.
var editFields = []struct{ Key, Label string }{
	{"name", "Name"},
	{"description", "Description"},
	{"priority", "Priority"},
	{"due_date", "Due date"},
	{"category", "Category"},
}

// HandleText advances the user's active flow with one inbound message.
// With no active flow it does nothing; the caller decides how to answer
// stray text.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) error {
	sess, ok := e.sessions.Get(userID)
	if !ok {
		return nil
	}
	switch sess.Kind {
	case FlowAdd:
		return e.advanceAdd(ctx, sess, text)
	case FlowEdit:
		return e.advanceEdit(ctx, sess, text)
	case FlowRemind:
		return e.advanceRemind(ctx, sess, text)
	default:
		// Delete has no text step; selection handles everything.
		return nil
	}
}

// HandleSelection routes an option click (callback data) to the flow that
// presented the menu. Clicks without a matching session come from expired
// menus.
func (e *Engine) HandleSelection(ctx context.Context, userID int64, data string) error {
	sess, ok := e.sessions.Get(userID)
	if !ok {
		e.send(ctx, userID, msgMenuExpired)
		return nil
	}
	switch {
	case strings.HasPrefix(data, "delete_") && sess.Kind == FlowDelete:
		return e.selectDelete(ctx, sess, strings.TrimPrefix(data, "delete_"))
	case strings.HasPrefix(data, "choose_task_") && sess.Kind == FlowEdit:
		return e.selectEditTarget(ctx, sess, strings.TrimPrefix(data, "choose_task_"))
	case strings.HasPrefix(data, "edit_") && sess.Kind == FlowEdit:
		return e.selectEditField(ctx, sess, strings.TrimPrefix(data, "edit_"))
	default:
		e.send(ctx, userID, msgMenuExpired)
		return nil
	}
}

// advanceAdd runs one step of the add flow. A value that fails its rule
// re-prompts without advancing; the final step persists the draft.
func (e *Engine) advanceAdd(ctx context.Context, sess *Session, text string) error {
	switch sess.Step {
	case stepName:
		if strings.TrimSpace(text) == "" {
			e.send(ctx, sess.UserID, promptName)
			return nil
		}
		sess.Draft.Name = text
		sess.Step++
		e.send(ctx, sess.UserID, promptDescription)
	case stepDescription:
		sess.Draft.Description = text
		sess.Step++
		e.send(ctx, sess.UserID, promptPriority)
	case stepPriority:
		p := task.CanonicalPriority(text)
		if !task.ValidPriority(p) {
			e.send(ctx, sess.UserID, msgBadPriority)
			return &ValidationError{Field: "priority", Input: text}
		}
		sess.Draft.Priority = p
		sess.Step++
		e.send(ctx, sess.UserID, promptCategory())
	case stepCategory:
		c := task.CanonicalCategory(text)
		if !task.ValidCategory(c) {
			e.send(ctx, sess.UserID, msgBadCategory())
			return &ValidationError{Field: "category", Input: text}
		}
		sess.Draft.Category = c
		sess.Step++
		e.send(ctx, sess.UserID, promptDueDate)
	case stepDueDate:
		if _, err := task.ParseDueDate(text); err != nil {
			e.send(ctx, sess.UserID, msgBadDate)
			return &ValidationError{Field: "due_date", Input: text}
		}
		sess.Draft.DueDate = text
		sess.Draft.Reminder = ""
		if err := e.store.Append(sess.UserID, sess.Draft); err != nil {
			e.failStorage(ctx, sess.UserID, err)
			return err
		}
		e.sessions.End(sess.UserID)
		e.send(ctx, sess.UserID, msgTaskAdded)
	}
	return nil
}

// selectDelete removes the picked task and rewrites the rest in order.
func (e *Engine) selectDelete(ctx context.Context, sess *Session, posStr string) error {
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		e.send(ctx, sess.UserID, msgBadNumber)
		return nil
	}
	victim, err := pick(sess.Snapshot, pos)
	if err != nil {
		e.send(ctx, sess.UserID, msgNumberRange)
		return err
	}
	rest := make([]task.Task, 0, len(sess.Snapshot)-1)
	rest = append(rest, sess.Snapshot[:pos-1]...)
	rest = append(rest, sess.Snapshot[pos:]...)
	if err := e.store.Replace(sess.UserID, rest); err != nil {
		e.failStorage(ctx, sess.UserID, err)
		return err
	}
	e.sessions.End(sess.UserID)
	e.send(ctx, sess.UserID, fmt.Sprintf("Task %q was deleted.", victim.Name))
	return nil
}

// selectEditTarget records the picked task and offers the field menu.
func (e *Engine) selectEditTarget(ctx context.Context, sess *Session, posStr string) error {
	pos, err := strconv.Atoi(posStr)
	if err != nil {
		e.send(ctx, sess.UserID, msgBadNumber)
		return nil
	}
	if _, err := pick(sess.Snapshot, pos); err != nil {
		e.send(ctx, sess.UserID, msgNumberRange)
		return err
	}
	sess.Target = pos

	opts := make([]transport.Option, 0, len(editFields))
	for _, f := range editFields {
		opts = append(opts, transport.Option{
			Label: f.Label,
			Data:  fmt.Sprintf("edit_%d_%s", pos, f.Key),
		})
	}
	return e.gw.SendOptions(ctx, sess.UserID, chooseField, opts)
}

// selectEditField records the picked field and prompts for its new value.
// Data arrives as "<pos>_<field>"; the field key may itself contain an
// underscore (due_date).
func (e *Engine) selectEditField(ctx context.Context, sess *Session, data string) error {
	pos, field, ok := strings.Cut(data, "_")
	if !ok {
		e.send(ctx, sess.UserID, msgMenuExpired)
		return nil
	}
	p, err := strconv.Atoi(pos)
	if err != nil || p != sess.Target {
		e.send(ctx, sess.UserID, msgMenuExpired)
		return nil
	}
	if !knownField(field) {
		e.send(ctx, sess.UserID, msgMenuExpired)
		return nil
	}
	sess.Field = field
	e.send(ctx, sess.UserID, editPrompt(field))
	return nil
}

// advanceEdit validates the replacement value against the selected field's
// rule and rewrites the collection.
func (e *Engine) advanceEdit(ctx context.Context, sess *Session, text string) error {
	if sess.Target == 0 || sess.Field == "" {
		// Still waiting on a menu click; stray text is ignored.
		return nil
	}
	val, err := validateField(sess.Field, text)
	if err != nil {
		e.send(ctx, sess.UserID, fieldFailure(sess.Field))
		return err
	}
	updated := make([]task.Task, len(sess.Snapshot))
	copy(updated, sess.Snapshot)
	setField(&updated[sess.Target-1], sess.Field, val)

	if err := e.store.Replace(sess.UserID, updated); err != nil {
		e.failStorage(ctx, sess.UserID, err)
		return err
	}
	e.sessions.End(sess.UserID)
	e.send(ctx, sess.UserID, msgTaskUpdated)
	return nil
}

// advanceRemind handles the two text steps of the remind flow: position,
// then date-time.
func (e *Engine) advanceRemind(ctx context.Context, sess *Session, text string) error {
	switch sess.Step {
	case stepRemindPick:
		pos, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			e.send(ctx, sess.UserID, msgBadNumber)
			return nil
		}
		target, err := pick(sess.Snapshot, pos)
		if err != nil {
			e.send(ctx, sess.UserID, msgNumberRange)
			return err
		}
		sess.Target = pos
		sess.Step++
		e.send(ctx, sess.UserID, fmt.Sprintf("You picked %q. Let's set a reminder for it.", target.Name))
		e.send(ctx, sess.UserID, promptRemindTime)
	case stepRemindTime:
		when, err := task.ParseReminder(text)
		if err != nil {
			e.send(ctx, sess.UserID, msgBadDateTime)
			return &ValidationError{Field: "reminder", Input: text}
		}
		updated := make([]task.Task, len(sess.Snapshot))
		copy(updated, sess.Snapshot)
		updated[sess.Target-1].Reminder = when.Format(task.ReminderLayout)

		if err := e.store.Replace(sess.UserID, updated); err != nil {
			e.failStorage(ctx, sess.UserID, err)
			return err
		}
		name := updated[sess.Target-1].Name
		e.sessions.End(sess.UserID)
		e.send(ctx, sess.UserID, fmt.Sprintf("Reminder for %q set for %s.", name, when.Format(task.ReminderLayout)))
	}
	return nil
}

func knownField(field string) bool {
	for _, f := range editFields {
		if f.Key == field {
			return true
		}
	}
	return false
}

func editPrompt(field string) string {
	switch field {
	case "name":
		return "Enter the new task name:"
	case "description":
		return "Enter the new task description:"
	case "priority":
		return "Enter the new task priority (High, Medium, Low):"
	case "due_date":
		return "Enter the new due date (format: DD-MM-YYYY):"
	case "category":
		return fmt.Sprintf("Enter the new task category (%s):", strings.Join(task.Categories, ", "))
	}
	return ""
}

func fieldFailure(field string) string {
	switch field {
	case "priority":
		return msgBadPriority
	case "category":
		return msgBadCategory()
	case "due_date":
		return msgBadDate
	}
	return editPrompt(field)
}

// validateField applies a field's rule to a candidate value, returning the
// canonical form to store.
func validateField(field, input string) (string, error) {
	switch field {
	case "name":
		if strings.TrimSpace(input) == "" {
			return "", &ValidationError{Field: field, Input: input}
		}
		return input, nil
	case "description":
		return input, nil
	case "priority":
		p := task.CanonicalPriority(input)
		if !task.ValidPriority(p) {
			return "", &ValidationError{Field: field, Input: input}
		}
		return p, nil
	case "category":
		c := task.CanonicalCategory(input)
		if !task.ValidCategory(c) {
			return "", &ValidationError{Field: field, Input: input}
		}
		return c, nil
	case "due_date":
		if _, err := task.ParseDueDate(input); err != nil {
			return "", &ValidationError{Field: field, Input: input}
		}
		return input, nil
	}
	return "", &ValidationError{Field: field, Input: input}
}

// setField writes a validated value into the record.
func setField(t *task.Task, field, val string) {
	switch field {
	case "name":
		t.Name = val
	case "description":
		t.Description = val
	case "priority":
		t.Priority = val
	case "category":
		t.Category = val
	case "due_date":
		t.DueDate = val
	}
}
