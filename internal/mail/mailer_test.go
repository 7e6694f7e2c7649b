package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	sesiface.SESAPI
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmailWithContext(ctx aws.Context, in *ses.SendEmailInput, opts ...request.Option) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer(t *testing.T) {
	msg := Message{
		From:    "no-reply@example.com",
		To:      []string{"jane@example.com"},
		Subject: "Survey Link",
		Body:    "Please fill out the form at http://localhost:3000/surveys/1",
	}

	t.Run("Success - builds a plain text email", func(t *testing.T) {
		fake := &fakeSES{}
		require.NoError(t, NewSESMailerWithClient(fake).Send(context.Background(), msg))

		assert.Equal(t, "no-reply@example.com", aws.StringValue(fake.input.Source))
		assert.Equal(t, []string{"jane@example.com"}, aws.StringValueSlice(fake.input.Destination.ToAddresses))
		assert.Equal(t, "Survey Link", aws.StringValue(fake.input.Message.Subject.Data))
		assert.Contains(t, aws.StringValue(fake.input.Message.Body.Text.Data), "/surveys/1")
	})

	t.Run("Error - provider failure is wrapped", func(t *testing.T) {
		fake := &fakeSES{err: errors.New("throttled")}
		err := NewSESMailerWithClient(fake).Send(context.Background(), msg)
		assert.ErrorContains(t, err, "throttled")
	})
}

func TestBuildRFC822(t *testing.T) {
	raw := string(buildRFC822(Message{
		From:    "a@example.com",
		To:      []string{"b@example.com", "c@example.com"},
		Subject: "Welcome to My Site!",
		Body:    "Hi",
	}))
	assert.True(t, strings.HasPrefix(raw, "From: a@example.com\r\n"))
	assert.Contains(t, raw, "To: b@example.com, c@example.com\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nHi"))
}

func TestNew(t *testing.T) {
	cfg := config.Default()

	m, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, LogMailer{}, m)

	cfg.MailDriver = "smtp"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg.SMTPHost = "smtp.example.com"
	m, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	cfg.MailDriver = "pigeon"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send(context.Background(), Message{To: []string{"x@example.com"}, Subject: "one"}))
	require.NoError(t, r.Send(context.Background(), Message{To: []string{"x@example.com"}, Subject: "two"}))

	last, ok := r.Last("x@example.com")
	assert.True(t, ok)
	assert.Equal(t, "two", last.Subject)

	r.Err = errors.New("down")
	assert.Error(t, r.Send(context.Background(), Message{}))
	assert.Len(t, r.Sent(), 2)
}
