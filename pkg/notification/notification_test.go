package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/pkg/event"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/mail"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
	"github.com/shashiranjanraj/stockdesk/pkg/testkit"
)

type failingChannel struct{}

func (failingChannel) Name() string { return "failing" }
func (failingChannel) Deliver(context.Context, notification.Message) error {
	return errors.New("down")
}

func TestDispatcherFansOutAndSurvivesFailures(t *testing.T) {
	rec := &notification.Recorder{}
	d := notification.NewDispatcher(failingChannel{}, rec)

	d.Notify(context.Background(), notification.Success, "Product Tee created successfully")
	d.Wait()

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notification.Success, msgs[0].Severity)
	assert.Equal(t, "Product Tee created successfully", msgs[0].Text)
}

func TestConsoleChannelFiresOnBus(t *testing.T) {
	bus := event.NewBus()
	var got notification.Message
	bus.Listen(notification.Sent, func(p interface{}) { got = p.(notification.Message) })

	d := notification.NewDispatcher(notification.ConsoleChannel{Bus: bus})
	d.Notify(context.Background(), notification.Error, "Failed")
	d.Wait()

	assert.Equal(t, "Failed", got.Text)
}

func TestSlackChannelPostsAttachment(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "/hooks/abc").Reply(200, "ok")
	apihttp.DefaultClient.Transport = mt
	defer apihttp.ResetTransport()

	ch := notification.NewSlackChannel("https://slack.test/hooks/abc")
	err := ch.Deliver(context.Background(), notification.Message{Severity: notification.Error, Text: "boom"})
	require.NoError(t, err)

	var body struct {
		Attachments []notification.SlackAttachment `json:"attachments"`
	}
	calls := mt.Calls()
	require.Len(t, calls, 1)
	testkit.DecodeCall(t, calls[0], &body)
	require.Len(t, body.Attachments, 1)
	assert.Equal(t, "danger", body.Attachments[0].Color)
	assert.Equal(t, "boom", body.Attachments[0].Text)
}

func TestWebhookChannelReportsHTTPFailure(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "").Reply(500, `{"detail":"down"}`)
	apihttp.DefaultClient.Transport = mt
	defer apihttp.ResetTransport()

	ch := notification.NewWebhookChannel("https://hooks.test/notify")
	err := ch.Deliver(context.Background(), notification.Message{Severity: notification.Info, Text: "x"})
	var se *apihttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.StatusCode)
}

type fakeMailer struct{ sent []mail.Message }

func (f *fakeMailer) Send(_ context.Context, m mail.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

func TestMailChannelOnlyMailsProblems(t *testing.T) {
	fm := &fakeMailer{}
	ch := notification.NewMailChannel(fm, "ops@test")
	ctx := context.Background()

	require.NoError(t, ch.Deliver(ctx, notification.Message{Severity: notification.Success, Text: "Stock updated successfully"}))
	require.NoError(t, ch.Deliver(ctx, notification.Message{Severity: notification.Error, Text: "Failed to update stock"}))

	require.Len(t, fm.sent, 1)
	assert.Equal(t, []string{"ops@test"}, fm.sent[0].To)
	assert.Equal(t, "[stockdesk] ERROR", fm.sent[0].Subject)
	assert.Contains(t, fm.sent[0].Body, "Failed to update stock")
}
