package polls

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/polls-app/polls/internal/testutil"
)

func TestCastVote(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)

	user := testutil.CreateUser(t, db, "alice")
	question := testutil.CreateQuestion(t, db, "Best pet?", -day, "Cat", "Dog")
	cat, dog := question.Choices[0], question.Choices[1]

	vote, err := ledger.CastVote(ctx, user.ID, question, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, vote.ChoiceID)
	assert.Equal(t, "Cat", vote.Choice.Text)
	assert.EqualValues(t, 1, testutil.CountVotes(t, db))

	t.Run("recasting moves the vote", func(t *testing.T) {
		vote, err := ledger.CastVote(ctx, user.ID, question, dog.ID)
		require.NoError(t, err)
		assert.Equal(t, dog.ID, vote.ChoiceID)
		assert.Equal(t, "Dog", vote.Choice.Text)
		assert.EqualValues(t, 1, testutil.CountVotes(t, db))
	})

	t.Run("same choice twice is idempotent", func(t *testing.T) {
		_, err := ledger.CastVote(ctx, user.ID, question, dog.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, testutil.CountVotes(t, db))
	})

	t.Run("current vote", func(t *testing.T) {
		current, err := ledger.CurrentVote(ctx, user.ID, question.ID)
		require.NoError(t, err)
		assert.Equal(t, dog.ID, current.ChoiceID)
	})
}

func TestCastVoteRejectsForeignChoice(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)

	user := testutil.CreateUser(t, db, "bob")
	question := testutil.CreateQuestion(t, db, "Q1", -day, "Yes")
	other := testutil.CreateQuestion(t, db, "Q2", -day, "No")

	_, err := ledger.CastVote(ctx, user.ID, question, other.Choices[0].ID)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	_, err = ledger.CastVote(ctx, user.ID, question, 0)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	assert.Zero(t, testutil.CountVotes(t, db))
}

func TestVotesAreScopedPerQuestionAndVoter(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	q1 := testutil.CreateQuestion(t, db, "Q1", -day, "A", "B")
	q2 := testutil.CreateQuestion(t, db, "Q2", -day, "C", "D")

	for _, voter := range []uint{alice.ID, bob.ID} {
		_, err := ledger.CastVote(ctx, voter, q1, q1.Choices[0].ID)
		require.NoError(t, err)
		_, err = ledger.CastVote(ctx, voter, q2, q2.Choices[1].ID)
		require.NoError(t, err)
	}

	assert.EqualValues(t, 4, testutil.CountVotes(t, db))

	_, err := ledger.CurrentVote(ctx, alice.ID, q1.ID+q2.ID+1)
	assert.ErrorIs(t, err, ErrNoVote)
}

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"other postgres error", &pgconn.PgError{Code: "23503"}, false},
		{"unrelated", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicate(tt.err))
		})
	}
}

// loseFirstVoteInserts makes the first n vote inserts fail as if another
// request had inserted the same (voter, question) row first.
func loseFirstVoteInserts(t *testing.T, db *gorm.DB, n int) *int {
	t.Helper()

	attempts := 0
	err := db.Callback().Create().Before("gorm:create").Register("test:lose_vote_insert", func(tx *gorm.DB) {
		if tx.Statement.Schema == nil || tx.Statement.Schema.Table != "votes" {
			return
		}
		attempts++
		if attempts <= n {
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	})
	require.NoError(t, err)
	return &attempts
}

func TestCastVoteRetriesAfterLosingFirstInsert(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)

	user := testutil.CreateUser(t, db, "alice")
	question := testutil.CreateQuestion(t, db, "Best pet?", -day, "Cat", "Dog")
	attempts := loseFirstVoteInserts(t, db, 1)

	vote, err := ledger.CastVote(ctx, user.ID, question, question.Choices[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *attempts)
	assert.Equal(t, "Dog", vote.Choice.Text)
	assert.EqualValues(t, 1, testutil.CountVotes(t, db))

	current, err := ledger.CurrentVote(ctx, user.ID, question.ID)
	require.NoError(t, err)
	assert.Equal(t, vote.ID, current.ID)
}

func TestCastVoteGivesUpAfterOneRetry(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)

	user := testutil.CreateUser(t, db, "alice")
	question := testutil.CreateQuestion(t, db, "Best pet?", -day, "Cat")
	attempts := loseFirstVoteInserts(t, db, 2)

	_, err := ledger.CastVote(context.Background(), user.ID, question, question.Choices[0].ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, 2, *attempts)
	assert.Zero(t, testutil.CountVotes(t, db))
}
