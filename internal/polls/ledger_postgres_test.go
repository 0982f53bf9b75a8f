package polls

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/polls-app/polls/internal/database"
	"github.com/polls-app/polls/internal/testutil"
)

func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("polls"),
		tcpostgres.WithUsername("polls"),
		tcpostgres.WithPassword("polls"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	svc, err := database.Open(postgres.Open(dsn), "polls")
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc.GetDB()
}

func TestConcurrentFirstVotesKeepOneRow(t *testing.T) {
	db := openPostgres(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	question := testutil.CreateQuestion(t, db, "Best pet?", -day, "Cat", "Dog", "Fish", "Bird")

	const voters = 8
	start := make(chan struct{})
	errs := make(chan error, voters)
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		choice := question.Choices[i%len(question.Choices)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ledger.CastVote(ctx, user.ID, question, choice.ID)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, testutil.CountVotes(t, db))

	current, err := ledger.CurrentVote(ctx, user.ID, question.ID)
	require.NoError(t, err)
	_, ok := question.Choice(current.ChoiceID)
	assert.True(t, ok)
}
