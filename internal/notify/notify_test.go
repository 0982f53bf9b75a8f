package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/polls-app/polls/internal/config"
	"github.com/polls-app/polls/internal/models"
)

type fakeMessages struct {
	sent []*api.CreateMessageParams
	err  error
}

func (f *fakeMessages) CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	sid := "SM123"
	return &api.ApiV2010Message{Sid: &sid}, nil
}

// stalledMessages never answers until released.
type stalledMessages struct {
	release chan struct{}
}

func (s *stalledMessages) CreateMessage(*api.CreateMessageParams) (*api.ApiV2010Message, error) {
	<-s.release
	return &api.ApiV2010Message{}, nil
}

type recorder struct {
	to, body string
	err      error
}

func (r *recorder) Send(_ context.Context, to, body string) error {
	r.to, r.body = to, body
	return r.err
}

func TestNewPicksImplementation(t *testing.T) {
	assert.IsType(t, Nop{}, New(config.Twilio{}))
	assert.IsType(t, &Twilio{}, New(config.Twilio{AccountSID: "AC1", AuthToken: "t", FromNumber: "+15005550006"}))
}

func TestTwilioSend(t *testing.T) {
	fake := &fakeMessages{}
	n := &Twilio{messages: fake, from: "+15005550006"}

	require.NoError(t, n.Send(context.Background(), "+15551234567", "hello"))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, "+15551234567", *fake.sent[0].To)
	assert.Equal(t, "+15005550006", *fake.sent[0].From)
	assert.Equal(t, "hello", *fake.sent[0].Body)

	fake.err = errors.New("rate limited")
	assert.Error(t, n.Send(context.Background(), "+15551234567", "hello"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Send(ctx, "+15551234567", "hello"), context.Canceled)
}

func TestTwilioSendStopsAtDeadline(t *testing.T) {
	stalled := &stalledMessages{release: make(chan struct{})}
	defer close(stalled.release)
	n := &Twilio{messages: stalled, from: "+15005550006"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.Send(ctx, "+15551234567", "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSendReceipt(t *testing.T) {
	question := &models.Question{ID: 1, Text: "What's up?"}
	choice := models.Choice{ID: 2, Text: "The sky"}

	t.Run("voter with phone", func(t *testing.T) {
		rec := &recorder{}
		SendReceipt(context.Background(), rec, &models.User{ID: 1, Phone: "+15551234567"}, question, choice)
		assert.Equal(t, "+15551234567", rec.to)
		assert.Equal(t, `Your vote for "The sky" on "What's up?" was recorded.`, rec.body)
	})

	t.Run("voter without phone", func(t *testing.T) {
		rec := &recorder{}
		SendReceipt(context.Background(), rec, &models.User{ID: 1}, question, choice)
		assert.Empty(t, rec.to)
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		rec := &recorder{err: errors.New("down")}
		assert.NotPanics(t, func() {
			SendReceipt(context.Background(), rec, &models.User{ID: 1, Phone: "+15551234567"}, question, choice)
		})
	})
}
