package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"zabbix-chatops/internal/formatter"
	"zabbix-chatops/internal/metrics"
	"zabbix-chatops/internal/models"

	"github.com/sirupsen/logrus"
)

// DefaultRenderTimeout bounds a single renderer call.
const DefaultRenderTimeout = 30 * time.Second

// GatewayConfig holds the tunables of the Gateway.
type GatewayConfig struct {
	GraphsDir     string
	RenderTimeout time.Duration
}

// Gateway is the boundary between the messaging transport, the alert sources
// and the command interpreter.
type Gateway struct {
	store       *AlertStore
	interpreter *Interpreter
	formatter   *formatter.Formatter
	sender      Sender
	renderer    Renderer
	audit       AuditRepository
	cfg         GatewayConfig
	logger      *logrus.Entry
	now         func() time.Time

	mu     sync.Mutex // guards closed and wg.Add
	closed bool
	wg     sync.WaitGroup // pending follow-ups
	seq    atomic.Uint64
}

// NewGateway creates a Gateway. renderer and audit may be nil.
func NewGateway(store *AlertStore, interpreter *Interpreter, f *formatter.Formatter, sender Sender, renderer Renderer, audit AuditRepository, cfg GatewayConfig, logger *logrus.Entry) *Gateway {
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}
	if cfg.GraphsDir == "" {
		cfg.GraphsDir = "graphs"
	}
	return &Gateway{
		store:       store,
		interpreter: interpreter,
		formatter:   f,
		sender:      sender,
		renderer:    renderer,
		audit:       audit,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// OnInboundText dispatches a one-to-one text starting with the command prefix.
// Everything else is ignored silently and reported as not dispatched.
func (g *Gateway) OnInboundText(ctx context.Context, msg models.InboundMessage) bool {
	text := strings.TrimSpace(msg.Text)
	if msg.IsGroup || !strings.HasPrefix(text, models.CommandPrefix) {
		return false
	}

	res := g.interpreter.Handle(msg.Recipient, text)
	log := g.logger.WithFields(logrus.Fields{
		"recipient": msg.Recipient,
		"command":   res.Command,
		"outcome":   res.Outcome,
	})
	log.Info("Command received")
	metrics.CommandsTotal.WithLabelValues(string(res.Command), string(res.Outcome)).Inc()

	err := g.send(ctx, msg.Recipient, "reply", models.OutboundMessage{Text: res.Reply})
	record := &models.AuditRecord{
		Recipient: msg.Recipient,
		Kind:      models.AuditCommand,
		Action:    string(res.Command),
		Success:   err == nil,
		Detail:    string(res.Outcome),
	}
	if res.FollowUp != nil {
		record.AlertID = res.FollowUp.Instance.ID
	}
	g.record(ctx, record)

	if res.FollowUp != nil && res.FollowUp.Kind == models.FollowUpResolution {
		g.schedule(res.FollowUp.Instance)
	}
	return true
}

func (g *Gateway) schedule(inst models.AlertInstance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		g.logger.WithFields(logrus.Fields{
			"recipient": inst.Recipient,
			"alert_id":  inst.ID,
		}).Warn("Gateway is shutting down, resolution follow-up dropped")
		return
	}
	g.wg.Add(1)
	go g.deliverResolution(inst)
}

// OnAlertRaised renders the alert chart, records a new instance and notifies the
// recipient. A renderer failure degrades to a text-only notification; the
// returned error wraps ErrInvalidInput or ErrTransportFailure.
func (g *Gateway) OnAlertRaised(ctx context.Context, req models.RaiseRequest) (models.AlertInstance, error) {
	if strings.TrimSpace(req.Recipient) == "" || req.Definition == nil || strings.TrimSpace(req.Definition.Name) == "" {
		return models.AlertInstance{}, fmt.Errorf("%w: recipient and alert definition are required", ErrInvalidInput)
	}

	artifact, _ := g.render(ctx, req.Definition, g.artifactPath(req.Definition), false)

	inst, err := g.store.RecordAlert(req.Recipient, req.Definition, artifact, req.Details)
	if err != nil {
		return inst, err
	}
	metrics.AlertsRaisedTotal.WithLabelValues(req.Definition.Name).Inc()
	g.logger.WithFields(logrus.Fields{
		"recipient": req.Recipient,
		"alert_id":  inst.ID,
		"alert":     req.Definition.Name,
	}).Info("Alert raised")

	err = g.send(ctx, req.Recipient, "raised", g.formatter.Notification(inst, models.ModeRaised))
	g.record(ctx, &models.AuditRecord{
		Recipient: req.Recipient,
		Kind:      models.AuditNotification,
		Action:    string(models.ModeRaised),
		AlertID:   inst.ID,
		Success:   err == nil,
		Detail:    req.Definition.Name,
	})
	return inst, err
}

// Wait blocks until every scheduled follow-up has been delivered.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

// Close stops scheduling follow-ups and waits for the pending ones.
// Commands handled afterwards still get their reply.
func (g *Gateway) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.wg.Wait()
}

func (g *Gateway) deliverResolution(inst models.AlertInstance) {
	defer g.wg.Done()
	ctx := context.Background()

	if ref, err := g.render(ctx, inst.Definition, g.resolutionPath(inst), true); err == nil {
		if err := g.store.AttachResolutionArtifact(inst.Recipient, inst.ID, ref); err != nil {
			g.logger.WithError(err).WithField("alert_id", inst.ID).Warn("Could not attach resolution chart")
		}
		inst.ResolutionArtifactRef = ref
	}

	err := g.send(ctx, inst.Recipient, "resolution", g.formatter.Notification(inst, models.ModeResolved))
	g.record(ctx, &models.AuditRecord{
		Recipient: inst.Recipient,
		Kind:      models.AuditNotification,
		Action:    string(models.ModeResolved),
		AlertID:   inst.ID,
		Success:   err == nil,
		Detail:    inst.Definition.Name,
	})
}

// render runs the renderer under the configured timeout. A renderer that does
// not honour ctx is abandoned when the deadline passes.
func (g *Gateway) render(ctx context.Context, def *models.AlertDefinition, path string, resolved bool) (string, error) {
	if g.renderer == nil {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.RenderTimeout)
	defer cancel()

	req := models.RenderRequest{
		AlertName:  def.Name,
		Threshold:  def.Threshold,
		Unit:       def.Unit,
		Host:       def.Host,
		OutputPath: path,
		Resolved:   resolved,
	}
	done := make(chan error, 1)
	go func() { done <- g.renderer.Render(ctx, req) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		metrics.RendererFailuresTotal.Inc()
		g.logger.WithError(err).WithFields(logrus.Fields{
			"alert":    def.Name,
			"resolved": resolved,
		}).Warn("Chart rendering failed, sending text only")
		return "", fmt.Errorf("%w: %v", ErrRendererFailure, err)
	}
	return path, nil
}

func (g *Gateway) send(ctx context.Context, recipient, kind string, msg models.OutboundMessage) error {
	if err := g.sender.Send(ctx, recipient, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		g.logger.WithError(err).WithFields(logrus.Fields{
			"recipient": recipient,
			"kind":      kind,
		}).Error("Failed to send message")
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	metrics.NotificationsTotal.WithLabelValues(kind, "sent").Inc()
	return nil
}

func (g *Gateway) record(ctx context.Context, record *models.AuditRecord) {
	if g.audit == nil {
		return
	}
	record.Timestamp = time.Now()
	if err := g.audit.Append(ctx, record); err != nil {
		g.logger.WithError(err).WithField("recipient", record.Recipient).Warn("Failed to write audit record")
	}
}

func (g *Gateway) artifactPath(def *models.AlertDefinition) string {
	stamp := strings.Replace(g.now().UTC().Format("20060102T150405.000000000Z"), ".", "", 1)
	return filepath.Join(g.cfg.GraphsDir, fmt.Sprintf("%s_%s_%d.png", slug(def.Name), stamp, g.seq.Add(1)))
}

// resolutionPath is unique per follow-up so repeated resolutions of one
// instance never share an output file.
func (g *Gateway) resolutionPath(inst models.AlertInstance) string {
	base := inst.ArtifactRef
	if base == "" {
		base = g.artifactPath(inst.Definition)
	}
	return fmt.Sprintf("%s_resolved_%d.png", strings.TrimSuffix(base, ".png"), g.seq.Add(1))
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
