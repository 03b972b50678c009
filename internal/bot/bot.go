package bot

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"zabbix-chatops/internal/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// InboundHandler receives operator text from the chat.
type InboundHandler interface {
	OnInboundText(ctx context.Context, msg models.InboundMessage) bool
}

// Bot is the Telegram transport. Recipients are chat IDs in decimal form.
type Bot struct {
	bot     *telebot.Bot
	allowed map[int64]bool
	logger  *logrus.Entry
}

// Settings configures the Telegram transport.
type Settings struct {
	Token          string
	AllowedChatIDs []int64
	PollTimeout    time.Duration
	// URL overrides the Bot API endpoint, e.g. a local Bot API server.
	URL string
	// Offline skips the getMe call, for tests.
	Offline bool
}

func NewBot(s Settings, logger *logrus.Entry) (*Bot, error) {
	if s.PollTimeout <= 0 {
		s.PollTimeout = 10 * time.Second
	}
	pref := telebot.Settings{
		Token:   s.Token,
		URL:     s.URL,
		Poller:  &telebot.LongPoller{Timeout: s.PollTimeout},
		Offline: s.Offline,
		OnError: func(err error, c telebot.Context) {
			logger.WithError(err).Error("Telegram handler failed")
		},
	}
	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, err
	}

	botInstance := &Bot{
		bot:     b,
		allowed: make(map[int64]bool, len(s.AllowedChatIDs)),
		logger:  logger,
	}
	for _, id := range s.AllowedChatIDs {
		botInstance.allowed[id] = true
	}
	b.Use(botInstance.allowlistMiddleware())
	return botInstance, nil
}

// Start registers handlers and polls for updates until Stop is called.
func (b *Bot) Start(handler InboundHandler) {
	b.bot.Handle(telebot.OnText, b.textHandler(handler))
	b.logger.Info("Telegram bot starting...")
	b.bot.Start()
}

func (b *Bot) Stop() {
	b.bot.Stop()
}

// Telegram Bot API limits, in characters.
const (
	captionLimit = 1024
	textLimit    = 4096
)

// Send delivers msg to the chat identified by recipient. An existing artifact
// is sent as a photo with the text as its caption; a text too long for a
// caption follows the photo as separate messages.
func (b *Bot) Send(ctx context.Context, recipient string, msg models.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", recipient, err)
	}
	to := telebot.ChatID(chatID)
	opts := &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}

	text := msg.Text
	if msg.ArtifactPath != "" {
		if _, err := os.Stat(msg.ArtifactPath); err == nil {
			caption := text
			if utf8.RuneCountInString(text) > captionLimit {
				caption = headline(text)
			} else {
				text = ""
			}
			photo := &telebot.Photo{File: telebot.FromDisk(msg.ArtifactPath), Caption: caption}
			if _, err := b.bot.Send(to, photo, opts); err != nil {
				return err
			}
		} else {
			b.logger.WithField("artifact", msg.ArtifactPath).Warn("Artifact not found, sending text only")
		}
	}

	for _, chunk := range splitText(text, textLimit) {
		if _, err := b.bot.Send(to, chunk, opts); err != nil {
			return err
		}
	}
	return nil
}

// headline is the first line of text, cut to fit a caption.
func headline(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	if r := []rune(line); len(r) > captionLimit {
		line = string(r[:captionLimit])
	}
	return line
}

// splitText cuts text into chunks of at most limit runes, preferring line breaks.
func splitText(text string, limit int) []string {
	var chunks []string
	r := []rune(strings.TrimSpace(text))
	for len(r) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if r[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(r[:cut])))
		r = r[cut:]
	}
	if rest := strings.TrimSpace(string(r)); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// ConnectionState reports whether the Bot API answers.
func (b *Bot) ConnectionState(ctx context.Context) (string, error) {
	if _, err := b.bot.Raw("getMe", nil); err != nil {
		return "DISCONNECTED", err
	}
	return "CONNECTED", nil
}

func (b *Bot) textHandler(handler InboundHandler) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		chat := c.Chat()
		if chat == nil {
			return nil
		}
		handler.OnInboundText(context.Background(), models.InboundMessage{
			Recipient: strconv.FormatInt(chat.ID, 10),
			Text:      c.Text(),
			IsGroup:   chat.Type != telebot.ChatPrivate,
		})
		return nil
	}
}

// allowlistMiddleware drops updates from chats outside the configured list.
// An empty list allows every chat.
func (b *Bot) allowlistMiddleware() telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if len(b.allowed) == 0 || c.Chat() == nil {
				return next(c)
			}
			if !b.allowed[c.Chat().ID] {
				b.logger.WithField("chat_id", c.Chat().ID).Warn("Update from a chat outside the allowlist dropped")
				return nil
			}
			return next(c)
		}
	}
}
