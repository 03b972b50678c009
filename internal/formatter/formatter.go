package formatter

import (
	"fmt"
	"strings"
	"time"

	"zabbix-chatops/internal/models"
)

// TimestampLayout mirrors the pt-BR locale date format.
const TimestampLayout = "02/01/2006, 15:04:05"

// Formatter renders operator-facing texts in Telegram legacy Markdown.
// It has no side effects.
type Formatter struct {
	loc *time.Location
}

func New(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{loc: loc}
}

// Timestamp formats t in the formatter's location.
func (f *Formatter) Timestamp(t time.Time) string {
	return t.In(f.loc).Format(TimestampLayout)
}

// Notification renders an alert notification for the given mode.
func (f *Formatter) Notification(inst models.AlertInstance, mode models.NotificationMode) models.OutboundMessage {
	def := inst.Definition
	if def == nil {
		def = &models.AlertDefinition{}
	}
	var b strings.Builder

	switch mode {
	case models.ModeResolved:
		resolvedAt := inst.RaisedAt
		if inst.ResolvedAt != nil {
			resolvedAt = *inst.ResolvedAt
		}
		fmt.Fprintf(&b, "✅ *RESOLVIDO: %s*\n\n", bold(def.Name))
		fmt.Fprintf(&b, "*Host:* %s\n", escape(def.Host))
		fmt.Fprintf(&b, "*Problema:* %s\n", escape(problem(inst)))
		fmt.Fprintf(&b, "*Horário da Resolução:* %s\n\n", f.Timestamp(resolvedAt))
		if inst.ResolutionArtifactRef != "" {
			b.WriteString("O gráfico abaixo mostra a normalização da métrica.")
		} else {
			b.WriteString("_O gráfico de resolução não pôde ser gerado._")
		}
		return models.OutboundMessage{Text: b.String(), ArtifactPath: inst.ResolutionArtifactRef}
	default:
		fmt.Fprintf(&b, "🚨 *ALERTA: %s*\n\n", bold(def.Name))
		fmt.Fprintf(&b, "*Host:* %s\n", escape(def.Host))
		fmt.Fprintf(&b, "*Problema:* %s\n", escape(problem(inst)))
		fmt.Fprintf(&b, "*Severidade:* %s\n", escape(def.Severity))
		fmt.Fprintf(&b, "*Horário:* %s\n\n", f.Timestamp(inst.RaisedAt))
		fmt.Fprintf(&b, "Envie *%s* para confirmar ou *%s* para marcar como resolvido.", models.CommandAcknowledge, models.CommandResolve)
		return models.OutboundMessage{Text: b.String(), ArtifactPath: inst.ArtifactRef}
	}
}

func (f *Formatter) Help() string {
	var b strings.Builder
	b.WriteString("*Comandos Disponíveis:*\n\n")
	for _, c := range models.CommandTable {
		fmt.Fprintf(&b, "*%s*: %s\n", c.Command, c.Description)
	}
	return b.String()
}

func (f *Formatter) Status(total, unresolved int, now time.Time) string {
	var b strings.Builder
	b.WriteString("*Status do Sistema:*\n\n")
	b.WriteString("✅ *Zabbix*: Operacional\n")
	b.WriteString("✅ *Telegram*: Conectado\n")
	b.WriteString("✅ *Integração*: Funcionando\n\n")
	fmt.Fprintf(&b, "Alertas registrados: %d\n", total)
	fmt.Fprintf(&b, "Alertas ativos: %d\n", unresolved)
	fmt.Fprintf(&b, "Último check: %s", f.Timestamp(now))
	return b.String()
}

func (f *Formatter) Acknowledged(inst models.AlertInstance) string {
	var b strings.Builder
	b.WriteString("✅ *Alerta confirmado com sucesso!*\n\n")
	if inst.Definition != nil {
		fmt.Fprintf(&b, "*Host:* %s\n", escape(inst.Definition.Host))
	}
	fmt.Fprintf(&b, "*Problema:* %s\n", escape(problem(inst)))
	if inst.AcknowledgedAt != nil {
		fmt.Fprintf(&b, "*Confirmado em:* %s\n", f.Timestamp(*inst.AcknowledgedAt))
	}
	b.WriteString("\nUma equipe técnica foi notificada e está analisando o problema.")
	return b.String()
}

// NoActiveAlert is the reply for acknowledge/resolve when nothing was raised.
func (f *Formatter) NoActiveAlert(cmd models.Command) string {
	verb := "confirmar"
	if cmd == models.CommandResolve {
		verb = "resolver"
	}
	return fmt.Sprintf("❌ Não há alertas ativos para %s.", verb)
}

func (f *Formatter) ResolveAccepted() string {
	return "✅ *Comando de resolução processado.*\n\nO gráfico de resolução será enviado em uma mensagem separada."
}

// History lists instances in the given order with 1-based positions.
func (f *Formatter) History(instances []models.AlertInstance) string {
	if len(instances) == 0 {
		return "📝 *Histórico de Alertas Vazio*\n\nNenhum alerta foi registrado para este contato."
	}
	var b strings.Builder
	b.WriteString("*Histórico de Alertas:*\n\n")
	for i, inst := range instances {
		status := "⚠️ Ativo"
		if inst.Resolved {
			status = "✅ Resolvido"
		}
		ack := "✗ Não confirmado"
		if inst.Acknowledged {
			ack = "✓ Confirmado"
		}
		name, host := "", ""
		if inst.Definition != nil {
			name, host = inst.Definition.Name, inst.Definition.Host
		}
		fmt.Fprintf(&b, "*%d. %s*\n", i+1, bold(name))
		fmt.Fprintf(&b, "   Host: %s\n", escape(host))
		fmt.Fprintf(&b, "   Status: %s\n", status)
		fmt.Fprintf(&b, "   Confirmação: %s\n", ack)
		fmt.Fprintf(&b, "   Horário: %s\n\n", f.Timestamp(inst.RaisedAt))
	}
	return b.String()
}

// CommandFailed is the reply when a command hit an internal fault.
func (f *Formatter) CommandFailed() string {
	return "⚠️ Não foi possível processar o comando. Tente novamente."
}

func (f *Formatter) Unrecognized() string {
	return fmt.Sprintf("❓ *Comando não reconhecido*\n\nEnvie *%s* ou *%s* para ver a lista de comandos disponíveis.", models.CommandHelp, models.CommandCommands)
}

func problem(inst models.AlertInstance) string {
	if inst.Details != "" {
		return inst.Details
	}
	if inst.Definition != nil {
		return inst.Definition.Description
	}
	return ""
}

var markdownReplacer = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape protects dynamic values placed outside entities in Telegram legacy Markdown.
func escape(s string) string {
	return markdownReplacer.Replace(s)
}

// bold prepares a value placed inside a *bold* entity. Legacy Markdown has no
// escaping within an entity, so the only breaking character is dropped.
func bold(s string) string {
	return strings.ReplaceAll(s, "*", "")
}
