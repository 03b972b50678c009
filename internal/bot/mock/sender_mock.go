package mock

import (
	"context"
	"errors"
	"sync"

	"zabbix-chatops/internal/models"

	"github.com/sirupsen/logrus"
)

// SentMessage is one message captured by SenderMock.
type SentMessage struct {
	Recipient string
	Message   models.OutboundMessage
}

// SenderMock stands in for the Telegram transport. It records every message
// and logs it, so the service can run without a bot token.
type SenderMock struct {
	mu       sync.Mutex
	sent     []SentMessage
	failNext bool
	logger   *logrus.Entry
}

// NewSenderMock creates a mock transport. logger may be nil.
func NewSenderMock(logger *logrus.Entry) *SenderMock {
	return &SenderMock{logger: logger}
}

// FailNextCall makes the next Send fail.
func (m *SenderMock) FailNextCall() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

func (m *SenderMock) Send(ctx context.Context, recipient string, msg models.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("mock transport failed")
	}
	m.sent = append(m.sent, SentMessage{Recipient: recipient, Message: msg})
	if m.logger != nil {
		m.logger.WithFields(logrus.Fields{
			"recipient": recipient,
			"artifact":  msg.ArtifactPath,
		}).Infof("Mock send:\n%s", msg.Text)
	}
	return nil
}

// Sent returns a copy of the captured messages in send order.
func (m *SenderMock) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// ConnectionState reports the mock as always connected.
func (m *SenderMock) ConnectionState(ctx context.Context) (string, error) {
	return "MOCK", nil
}
