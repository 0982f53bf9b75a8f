// Package notify sends vote receipts to voters by SMS.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/polls-app/polls/internal/config"
	"github.com/polls-app/polls/internal/models"
)

type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

// New returns a Twilio notifier when credentials are configured and a Nop
// otherwise.
func New(cfg config.Twilio) Notifier {
	if !cfg.Enabled() {
		log.Info().Msg("Twilio not configured, vote receipts disabled")
		return Nop{}
	}
	return NewTwilio(cfg)
}

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

type Twilio struct {
	messages messageCreator
	from     string
}

func NewTwilio(cfg config.Twilio) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Twilio{messages: client.Api, from: cfg.FromNumber}
}

type sendResult struct {
	msg *api.ApiV2010Message
	err error
}

// Send returns when the message is accepted or ctx is done. The Twilio client
// takes no context, so a request still in flight at the deadline is abandoned
// rather than cancelled.
func (t *Twilio) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	done := make(chan sendResult, 1)
	go func() {
		msg, err := t.messages.CreateMessage(params)
		done <- sendResult{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to send sms: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("failed to send sms: %w", res.err)
		}
		if res.msg != nil && res.msg.Sid != nil {
			log.Debug().Str("sid", *res.msg.Sid).Msg("SMS sent")
		}
		return nil
	}
}

type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }

func ReceiptMessage(question *models.Question, choice models.Choice) string {
	return fmt.Sprintf("Your vote for \"%s\" on \"%s\" was recorded.", choice.Text, question.Text)
}

// SendReceipt notifies the voter when they have a phone number. Failures are
// logged and never reach the caller.
func SendReceipt(ctx context.Context, n Notifier, voter *models.User, question *models.Question, choice models.Choice) {
	if voter == nil || voter.Phone == "" {
		return
	}
	if err := n.Send(ctx, voter.Phone, ReceiptMessage(question, choice)); err != nil {
		log.Warn().Err(err).Uint("user", voter.ID).Uint("question", question.ID).Msg("Failed to send vote receipt")
	}
}
