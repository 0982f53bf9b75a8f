package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/polls-app/polls/internal/accounts"
	"github.com/polls-app/polls/internal/models"
	"github.com/polls-app/polls/internal/notify"
)

const receiptTimeout = 10 * time.Second

type receipts struct {
	accounts *accounts.Service
	notifier notify.Notifier
}

// send delivers the vote receipt in the background so a slow SMS provider
// never holds up the response. Delivery outlives the request but is bounded
// by receiptTimeout.
func (r receipts) send(ctx context.Context, voterID uint, question *models.Question, choice models.Choice) {
	if _, disabled := r.notifier.(notify.Nop); disabled {
		return
	}

	parent := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(parent, receiptTimeout)
		defer cancel()

		voter, err := r.accounts.Get(ctx, voterID)
		if err != nil {
			log.Warn().Err(err).Uint("user", voterID).Msg("Failed to load voter for receipt")
			return
		}
		notify.SendReceipt(ctx, r.notifier, voter, question, choice)
	}()
}
