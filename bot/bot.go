// Package bot wires chat commands to the dialogue engine and the task store.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dkrasnov/zadachnik/dialogue"
	"github.com/dkrasnov/zadachnik/task"
	"github.com/dkrasnov/zadachnik/transport"
)

const helpText = `<b>Here is what I can do:</b>

<b>/start</b> - Greeting and a summary of your tasks.

<b>/task_list</b> - Show all of your tasks.

<b>/add_task</b> - Add a new task. I will prompt you for each field step by step.

<b>/delete_task</b> - Delete a task. I will show your tasks and you pick the one to remove.

<b>/edit_task</b> - Edit a task. Pick a task, then the field to change: name, description, priority, due date or category.

<b>/remind</b> - Set a reminder for a task at a specific date and time.

<b>/help</b> - Show this message.

<b>Hint:</b> every command walks you through its steps one message at a time.`

// Bot routes inbound chat events: commands start flows or answer directly,
// plain text feeds the active flow, selections go to the flow that
// presented the menu.
type Bot struct {
	gw     transport.Gateway
	store  task.Store
	engine *dialogue.Engine
	log    *slog.Logger
}

// New creates the bot and its dialogue engine over the given store.
func New(gw transport.Gateway, store task.Store, logger *slog.Logger) *Bot {
	return &Bot{
		gw:     gw,
		store:  store,
		engine: dialogue.NewEngine(store, gw, logger),
		log:    logger,
	}
}

// Bind registers the bot as the gateway's event handler.
func (b *Bot) Bind() {
	b.gw.OnEvent(b.Handle)
}

// Handle processes one inbound event.
func (b *Bot) Handle(ctx context.Context, ev *transport.Event) error {
	switch {
	case ev.Command != "":
		return b.handleCommand(ctx, ev)
	case ev.Selection != "":
		return b.engine.HandleSelection(ctx, ev.UserID, ev.Selection)
	case b.engine.Active(ev.UserID):
		return b.engine.HandleText(ctx, ev.UserID, ev.Text)
	default:
		return b.gw.Send(ctx, ev.UserID, "I did not catch that. See /help for what I can do.")
	}
}

func (b *Bot) handleCommand(ctx context.Context, ev *transport.Event) error {
	b.log.Debug("command", "user", ev.UserID, "command", ev.Command)
	switch ev.Command {
	case "start":
		return b.start(ctx, ev)
	case "help":
		return b.gw.Send(ctx, ev.UserID, helpText)
	case "task_list":
		return b.taskList(ctx, ev.UserID)
	case "add_task":
		return b.engine.StartAdd(ctx, ev.UserID)
	case "delete_task":
		return b.engine.StartDelete(ctx, ev.UserID)
	case "edit_task":
		return b.engine.StartEdit(ctx, ev.UserID)
	case "remind":
		return b.engine.StartRemind(ctx, ev.UserID)
	default:
		return b.gw.Send(ctx, ev.UserID, "Unknown command. See /help.")
	}
}

// start registers the user and summarizes their task count.
func (b *Bot) start(ctx context.Context, ev *transport.Event) error {
	if err := b.store.RegisterUser(ev.UserID, ev.DisplayName); err != nil {
		b.log.Error("register user", "user", ev.UserID, "error", err)
		return b.gw.Send(ctx, ev.UserID, "Something went wrong, please try again later.")
	}
	name := ev.DisplayName
	if name == "" {
		name = "there"
	}
	if err := b.gw.Send(ctx, ev.UserID, fmt.Sprintf("Hi, %s! I will help you manage your tasks.", name)); err != nil {
		return err
	}

	tasks, err := b.store.List(ev.UserID)
	if err != nil {
		b.log.Error("list tasks", "user", ev.UserID, "error", err)
		return b.gw.Send(ctx, ev.UserID, "Something went wrong, please try again later.")
	}
	if len(tasks) == 0 {
		if err := b.gw.Send(ctx, ev.UserID, "<b>You have no tasks!</b>\nAdd one with <b>/add_task</b>."); err != nil {
			return err
		}
	} else {
		if err := b.gw.Send(ctx, ev.UserID, fmt.Sprintf("<b>You have %d task(s)!</b>\nSee them with <b>/task_list</b>.", len(tasks))); err != nil {
			return err
		}
	}
	return b.gw.Send(ctx, ev.UserID, "Use <b>/help</b> to see every command.")
}

// taskList renders the user's tasks with their priority markers.
func (b *Bot) taskList(ctx context.Context, userID int64) error {
	tasks, err := b.store.List(userID)
	if err != nil {
		b.log.Error("list tasks", "user", userID, "error", err)
		return b.gw.Send(ctx, userID, "Something went wrong, please try again later.")
	}
	if len(tasks) == 0 {
		return b.gw.Send(ctx, userID, "You have no tasks.")
	}

	var sb strings.Builder
	sb.WriteString("<b>Your tasks:</b>\n\n")
	for _, t := range tasks {
		emoji, ok := task.PriorityEmoji[t.Priority]
		if !ok {
			emoji = "⚪"
		}
		fmt.Fprintf(&sb, "<b>Name:</b> %s\n", t.Name)
		fmt.Fprintf(&sb, "<b>Description:</b> %s\n", t.Description)
		fmt.Fprintf(&sb, "<b>Priority:</b> %s %s\n", emoji, t.Priority)
		fmt.Fprintf(&sb, "<b>Category:</b> %s\n", t.Category)
		fmt.Fprintf(&sb, "<b>Due:</b> %s\n\n", t.DueDate)
	}
	return b.gw.Send(ctx, userID, sb.String())
}
