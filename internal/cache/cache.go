// Package cache keeps recently read questions in process memory.
//
// Only question text, dates and choices are cached. Vote counts are always
// read from the database.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/rs/zerolog/log"

	"github.com/polls-app/polls/internal/models"
)

type QuestionCache interface {
	Get(ctx context.Context, id uint) (*models.Question, bool)
	Set(ctx context.Context, question *models.Question)
	Delete(ctx context.Context, id uint)
	Flush(ctx context.Context) error
}

type questionCache struct {
	client  *ristretto.Cache
	marshal *marshaler.Marshaler
	ttl     time.Duration
}

// New builds a ristretto-backed cache. Entries expire after ttl.
func New(ttl time.Duration) (QuestionCache, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	cacheManager := cache.New[any](ristretto_store.NewRistretto(client))

	return &questionCache{
		client:  client,
		marshal: marshaler.New(cacheManager),
		ttl:     ttl,
	}, nil
}

func questionKey(id uint) string {
	return fmt.Sprintf("question#%d", id)
}

func (c *questionCache) Get(ctx context.Context, id uint) (*models.Question, bool) {
	value, err := c.marshal.Get(ctx, questionKey(id), new(models.Question))
	if err != nil {
		return nil, false
	}
	question, ok := value.(*models.Question)
	return question, ok
}

func (c *questionCache) Set(ctx context.Context, question *models.Question) {
	err := c.marshal.Set(
		ctx,
		questionKey(question.ID),
		question,
		store.WithExpiration(c.ttl),
		store.WithCost(1),
	)
	if err != nil {
		log.Warn().Err(err).Uint("question", question.ID).Msg("Failed to cache question")
		return
	}
	// ristretto applies writes asynchronously
	c.client.Wait()
}

func (c *questionCache) Delete(ctx context.Context, id uint) {
	if err := c.marshal.Delete(ctx, questionKey(id)); err != nil {
		log.Warn().Err(err).Uint("question", id).Msg("Failed to evict question")
	}
}

func (c *questionCache) Flush(ctx context.Context) error {
	return c.marshal.Clear(ctx)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, uint) (*models.Question, bool) { return nil, false }
func (Nop) Set(context.Context, *models.Question)              {}
func (Nop) Delete(context.Context, uint)                       {}
func (Nop) Flush(context.Context) error                        { return nil }
