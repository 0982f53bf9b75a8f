package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/polls-app/polls/internal/config"
	"github.com/polls-app/polls/internal/models"
)

func openSQLite(t *testing.T) Service {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	svc, err := Open(sqlite.Open(dsn), "memory")
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	svc := openSQLite(t)

	stats := svc.Health(context.Background())
	assert.Equal(t, "up", stats["status"])
	assert.Contains(t, stats, "open_connections")
}

func TestVoteUniquePerUserAndQuestion(t *testing.T) {
	svc := openSQLite(t)
	assertUniqueVote(t, svc.GetDB())
}

func TestPostgresMigrations(t *testing.T) {
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

	svc, err := Open(postgres.Open(dsn), "polls")
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	assert.Equal(t, "up", svc.Health(ctx)["status"])
	assertUniqueVote(t, svc.GetDB())
}

// assertUniqueVote checks that the store itself refuses a second vote row
// for the same user and question.
func assertUniqueVote(t *testing.T, db *gorm.DB) {
	t.Helper()

	user := models.User{Username: "voter", Email: "voter@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	question := models.Question{
		Text:        "Favourite colour?",
		PublishedAt: time.Now().UTC().Add(-time.Hour),
		Choices:     []models.Choice{{Text: "Red"}, {Text: "Blue"}},
	}
	require.NoError(t, db.Create(&question).Error)

	first := models.Vote{UserID: user.ID, QuestionID: question.ID, ChoiceID: question.Choices[0].ID}
	require.NoError(t, db.Create(&first).Error)

	second := models.Vote{UserID: user.ID, QuestionID: question.ID, ChoiceID: question.Choices[1].ID}
	err := db.Create(&second).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "expected duplicate key, got %v", err)
}
