// Package notification delivers the short status messages ("toasts") the
// product and stock flows emit, through one or more channels.
//
// Delivery is fire-and-forget: Notify never blocks the caller on a slow
// channel and never returns an error. Channel failures are logged.
//
//	n := notification.FromConfig(bus)
//	n.Notify(ctx, notification.Success, "Product Tee created successfully")
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/mail"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
	Warning Severity = "warning"
)

// Sent is the event fired on the bus by the console channel.
const Sent = "notification.sent"

// Message is one notification.
type Message struct {
	Severity Severity  `json:"severity"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}

// Notifier is what the services depend on.
type Notifier interface {
	Notify(ctx context.Context, severity Severity, text string)
}

// Channel delivers a message to one destination.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, m Message) error
}

// ------------------- Dispatcher -------------------

// Dispatcher fans a message out to every channel on its own goroutine.
type Dispatcher struct {
	channels []Channel
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, now: time.Now}
}

// FromConfig builds channels from NOTIFY_CHANNELS ("log", "console", "slack",
// "webhook", "mail"). Unknown names and channels missing a URL or recipient
// are skipped with a warning.
func FromConfig(bus *event.Bus) *Dispatcher {
	var chans []Channel
	for _, name := range config.NotifyChannels() {
		switch name {
		case "log":
			chans = append(chans, LogChannel{})
		case "console":
			chans = append(chans, ConsoleChannel{Bus: bus})
		case "slack":
			if url := config.SlackWebhookURL(); url != "" {
				chans = append(chans, NewSlackChannel(url))
				continue
			}
			logger.Warn("notification: slack channel needs SLACK_WEBHOOK_URL")
		case "webhook":
			if url := config.NotifyWebhookURL(); url != "" {
				chans = append(chans, NewWebhookChannel(url))
				continue
			}
			logger.Warn("notification: webhook channel needs NOTIFY_WEBHOOK_URL")
		case "mail":
			if to := config.NotifyMailTo(); len(to) > 0 {
				chans = append(chans, NewMailChannel(mail.New(mail.FromConfig()), to...))
				continue
			}
			logger.Warn("notification: mail channel needs NOTIFY_MAIL_TO")
		default:
			logger.Warn("notification: unknown channel", "channel", name)
		}
	}
	return NewDispatcher(chans...)
}

// Add appends channels. Call it before the first Notify.
func (d *Dispatcher) Add(channels ...Channel) {
	d.channels = append(d.channels, channels...)
}

// Notify delivers asynchronously. The context only supplies request-scoped
// logging; delivery is not cancelled with it.
func (d *Dispatcher) Notify(ctx context.Context, severity Severity, text string) {
	m := Message{Severity: severity, Text: text, Time: d.now()}
	log := logger.WithCtx(ctx)

	for _, ch := range d.channels {
		ch := ch
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := ch.Deliver(dctx, m); err != nil {
				log.Error("notification: channel failed", "channel", ch.Name(), "error", err)
			}
		}()
	}
}

// Wait blocks until every delivery started so far has finished. Call it on
// shutdown so queued messages are not lost.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// ------------------- Log channel -------------------

type LogChannel struct{}

func (LogChannel) Name() string { return "log" }

func (LogChannel) Deliver(_ context.Context, m Message) error {
	switch m.Severity {
	case Error:
		logger.Error("notify", "severity", m.Severity, "text", m.Text)
	case Warning:
		logger.Warn("notify", "severity", m.Severity, "text", m.Text)
	default:
		logger.Info("notify", "severity", m.Severity, "text", m.Text)
	}
	return nil
}

// ------------------- Console channel -------------------

// ConsoleChannel fires Sent on the bus; the console streams it to browsers.
type ConsoleChannel struct {
	Bus *event.Bus
}

func (ConsoleChannel) Name() string { return "console" }

func (c ConsoleChannel) Deliver(_ context.Context, m Message) error {
	if c.Bus == nil {
		return fmt.Errorf("notification: console channel has no bus")
	}
	c.Bus.Fire(Sent, m)
	return nil
}

// ------------------- Slack channel -------------------

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

type SlackChannel struct {
	client *apihttp.Client
}

func NewSlackChannel(webhookURL string) *SlackChannel {
	c := apihttp.NewClient(webhookURL, "")
	c.Timeout = 5 * time.Second
	return &SlackChannel{client: c}
}

func (*SlackChannel) Name() string { return "slack" }

func (s *SlackChannel) Deliver(ctx context.Context, m Message) error {
	color := map[Severity]string{Success: "good", Warning: "warning", Error: "danger"}[m.Severity]
	payload := slackPayload{
		Attachments: []SlackAttachment{{
			Color:  color,
			Title:  strings.ToUpper(string(m.Severity)),
			Text:   m.Text,
			Footer: "stockdesk",
		}},
	}
	resp, err := s.client.Post("").Body(payload).WithContext(ctx).Send()
	if err != nil {
		return fmt.Errorf("notification: slack post: %w", err)
	}
	return resp.Throw()
}

// ------------------- Webhook channel -------------------

type WebhookChannel struct {
	client *apihttp.Client
}

func NewWebhookChannel(url string) *WebhookChannel {
	c := apihttp.NewClient(url, "")
	c.Timeout = 10 * time.Second
	return &WebhookChannel{client: c}
}

func (*WebhookChannel) Name() string { return "webhook" }

func (w *WebhookChannel) Deliver(ctx context.Context, m Message) error {
	resp, err := w.client.Post("").Body(m).WithContext(ctx).Send()
	if err != nil {
		return fmt.Errorf("notification: webhook send: %w", err)
	}
	return resp.Throw()
}

// ------------------- Mail channel -------------------

// Mailer is the part of mail.Mailer the channel uses.
type Mailer interface {
	Send(ctx context.Context, m mail.Message) error
}

// MailChannel mails warnings and errors only.
type MailChannel struct {
	mailer Mailer
	to     []string
}

func NewMailChannel(m Mailer, to ...string) *MailChannel {
	return &MailChannel{mailer: m, to: to}
}

func (*MailChannel) Name() string { return "mail" }

func (c *MailChannel) Deliver(ctx context.Context, m Message) error {
	if m.Severity != Error && m.Severity != Warning {
		return nil
	}
	return c.mailer.Send(ctx, mail.Message{
		To:      c.to,
		Subject: "[stockdesk] " + strings.ToUpper(string(m.Severity)),
		Body:    m.Time.Format(time.RFC3339) + "\n" + m.Text,
	})
}

// ------------------- Recorder -------------------

// Recorder keeps every message in memory. It is both a Notifier and a
// Channel, for tests and for the CLI, which prints what was sent.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Deliver(_ context.Context, m Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Notify(ctx context.Context, severity Severity, text string) {
	_ = r.Deliver(ctx, Message{Severity: severity, Text: text, Time: time.Now()})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}
