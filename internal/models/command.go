package models

// Command is a recognized chat command token.
type Command string

const (
	CommandHelp         Command = "#help"
	CommandCommands     Command = "#commands"
	CommandStatus       Command = "#status"
	CommandAcknowledge  Command = "#acknowledge"
	CommandResolve      Command = "#resolve"
	CommandHistory      Command = "#history"
	CommandUnrecognized Command = "unrecognized"
)

// CommandPrefix marks inbound text that should be dispatched as a command.
const CommandPrefix = "#"

// CommandInfo is one row of the help table.
type CommandInfo struct {
	Command     Command
	Description string
}

// CommandTable lists the commands in the order they are shown to operators.
var CommandTable = []CommandInfo{
	{CommandHelp, "Mostra a lista de comandos disponíveis"},
	{CommandStatus, "Verifica o status atual do sistema"},
	{CommandAcknowledge, "Confirma o recebimento de um alerta"},
	{CommandResolve, "Marca um alerta como resolvido"},
	{CommandHistory, "Mostra os últimos 5 alertas"},
	{CommandCommands, "Lista todos os comandos disponíveis"},
}

// CommandOutcome classifies how a command ended, for logs, metrics and audit.
type CommandOutcome string

const (
	OutcomeOK            CommandOutcome = "ok"
	OutcomeNoActiveAlert CommandOutcome = "no_active_alert"
	OutcomeUnrecognized  CommandOutcome = "unrecognized"
	OutcomeFailed        CommandOutcome = "failed"
)

// FollowUpKind names work the gateway must do after replying to a command.
type FollowUpKind string

const FollowUpResolution FollowUpKind = "resolution"

// FollowUp is deferred work attached to a command result.
type FollowUp struct {
	Kind     FollowUpKind
	Instance AlertInstance
}

// CommandResult is what the interpreter decided for one inbound command.
type CommandResult struct {
	Command  Command
	Outcome  CommandOutcome
	Reply    string
	FollowUp *FollowUp
}

// InboundMessage is a text event received from the messaging transport.
type InboundMessage struct {
	Recipient string
	Text      string
	IsGroup   bool
}

// OutboundMessage is a message to deliver through the messaging transport.
// ArtifactPath, when set, is attached as an image with Text as its caption.
type OutboundMessage struct {
	Text         string
	ArtifactPath string
}

// NotificationMode selects the alert notification layout.
type NotificationMode string

const (
	ModeRaised   NotificationMode = "raised"
	ModeResolved NotificationMode = "resolved"
)
