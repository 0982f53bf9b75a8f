// Package testutil provides an isolated database and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/polls-app/polls/internal/database"
	"github.com/polls-app/polls/internal/models"
)

// Now is the reference instant fixtures are positioned against.
var Now = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

const Password = "correct-horse"

// NewTestDB opens a private in-memory SQLite database with all tables migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	svc, err := database.Open(sqlite.Open(dsn), "test")
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	return svc.GetDB()
}

// CreateQuestion stores a question published offset from Now. Negative
// offsets are in the past.
func CreateQuestion(t *testing.T, db *gorm.DB, text string, offset time.Duration, choices ...string) *models.Question {
	t.Helper()

	q := &models.Question{Text: text, PublishedAt: Now.Add(offset)}
	for _, c := range choices {
		q.Choices = append(q.Choices, models.Choice{Text: c})
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

// CloseQuestion sets the end of the voting window.
func CloseQuestion(t *testing.T, db *gorm.DB, q *models.Question, endsAt time.Time) {
	t.Helper()

	q.EndsAt = &endsAt
	require.NoError(t, db.Model(q).Update("ends_at", endsAt).Error)
}

func AddChoice(t *testing.T, db *gorm.DB, q *models.Question, text string) models.Choice {
	t.Helper()

	choice := models.Choice{QuestionID: q.ID, Text: text}
	require.NoError(t, db.Create(&choice).Error)
	q.Choices = append(q.Choices, choice)
	return choice
}

// CreateUser stores a user whose password is Password.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CountVotes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&n).Error)
	return n
}
