package service

import (
	"errors"
	"strings"
	"time"

	"zabbix-chatops/internal/formatter"
	"zabbix-chatops/internal/models"
)

// DefaultHistoryLimit is the number of alerts listed by #history.
const DefaultHistoryLimit = 5

// Interpreter maps command tokens to actions against the AlertStore.
// It keeps no session state; the recipient is the only context.
type Interpreter struct {
	store        *AlertStore
	formatter    *formatter.Formatter
	now          func() time.Time
	historyLimit int
}

// NewInterpreter creates an interpreter. A non-positive historyLimit selects
// DefaultHistoryLimit.
func NewInterpreter(store *AlertStore, f *formatter.Formatter, historyLimit int) *Interpreter {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Interpreter{store: store, formatter: f, now: time.Now, historyLimit: historyLimit}
}

// ParseCommand normalizes text into a command token.
func ParseCommand(text string) models.Command {
	switch cmd := models.Command(strings.ToLower(strings.TrimSpace(text))); cmd {
	case models.CommandHelp, models.CommandCommands, models.CommandStatus,
		models.CommandAcknowledge, models.CommandResolve, models.CommandHistory:
		return cmd
	default:
		return models.CommandUnrecognized
	}
}

// Handle interprets one command from recipient.
func (i *Interpreter) Handle(recipient, text string) models.CommandResult {
	cmd := ParseCommand(text)
	res := models.CommandResult{Command: cmd, Outcome: models.OutcomeOK}

	switch cmd {
	case models.CommandHelp, models.CommandCommands:
		res.Reply = i.formatter.Help()

	case models.CommandStatus:
		total, unresolved := i.store.Count(recipient)
		res.Reply = i.formatter.Status(total, unresolved, i.now())

	case models.CommandAcknowledge:
		inst, err := i.store.Acknowledge(recipient)
		if err != nil {
			return i.failed(res, err)
		}
		res.Reply = i.formatter.Acknowledged(inst)

	case models.CommandResolve:
		inst, err := i.store.Resolve(recipient, "")
		if err != nil {
			return i.failed(res, err)
		}
		res.Reply = i.formatter.ResolveAccepted()
		res.FollowUp = &models.FollowUp{Kind: models.FollowUpResolution, Instance: inst}

	case models.CommandHistory:
		res.Reply = i.formatter.History(i.store.History(recipient, i.historyLimit))

	default:
		res.Outcome = models.OutcomeUnrecognized
		res.Reply = i.formatter.Unrecognized()
	}
	return res
}

func (i *Interpreter) failed(res models.CommandResult, err error) models.CommandResult {
	if errors.Is(err, ErrNoActiveAlert) {
		res.Outcome = models.OutcomeNoActiveAlert
		res.Reply = i.formatter.NoActiveAlert(res.Command)
		return res
	}
	res.Outcome = models.OutcomeFailed
	res.Reply = i.formatter.CommandFailed()
	return res
}
