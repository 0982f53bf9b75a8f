package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func at(d time.Duration) time.Time { return now.Add(d) }

func ptr(t time.Time) *time.Time { return &t }

func TestWasPublishedRecently(t *testing.T) {
	tests := []struct {
		name        string
		publishedAt time.Time
		want        bool
	}{
		{"future question", at(30 * 24 * time.Hour), false},
		{"one second in the future", at(time.Second), false},
		{"older than one day", at(-(24*time.Hour + time.Second)), false},
		{"exactly one day old", at(-24 * time.Hour), true},
		{"within the last day", at(-(23*time.Hour + 59*time.Minute + 59*time.Second)), true},
		{"published now", now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{PublishedAt: tt.publishedAt}
			assert.Equal(t, tt.want, q.WasPublishedRecently(now))
		})
	}
}

func TestIsPublished(t *testing.T) {
	gap := 24*time.Hour + time.Second

	assert.True(t, (&Question{PublishedAt: now}).IsPublished(now), "published exactly now")
	assert.True(t, (&Question{PublishedAt: at(-gap)}).IsPublished(now), "published in the past")
	assert.False(t, (&Question{PublishedAt: at(gap)}).IsPublished(now), "scheduled in the future")
}

func TestCanVote(t *testing.T) {
	gap := 24*time.Hour + time.Second

	tests := []struct {
		name        string
		publishedAt time.Time
		endsAt      *time.Time
		want        bool
	}{
		{"published in the future", at(gap), nil, false},
		{"future with end date", at(gap), ptr(at(2 * gap)), false},
		{"no end date", now, nil, true},
		{"old question without end date", at(-30 * 24 * time.Hour), nil, true},
		{"published and ends now", now, ptr(now), true},
		{"inside window", at(-time.Hour), ptr(at(time.Hour)), true},
		{"end date one nanosecond ago", at(-time.Hour), ptr(at(-time.Nanosecond)), false},
		{"ended a day ago", now, ptr(at(-gap)), false},
		{"end before publication", at(-2 * time.Hour), ptr(at(-3 * time.Hour)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{PublishedAt: tt.publishedAt, EndsAt: tt.endsAt}
			assert.Equal(t, tt.want, q.CanVote(now))
		})
	}
}

func TestCanVoteMatchesIsPublishedWithoutEndDate(t *testing.T) {
	for _, offset := range []time.Duration{-48 * time.Hour, -time.Second, 0, time.Second, 48 * time.Hour} {
		q := Question{PublishedAt: at(offset)}
		assert.Equal(t, q.IsPublished(now), q.CanVote(now), "offset %s", offset)
	}
}

func TestQuestionChoice(t *testing.T) {
	q := Question{ID: 1, Choices: []Choice{{ID: 10, QuestionID: 1, Text: "Yes"}, {ID: 11, QuestionID: 1, Text: "No"}}}

	choice, ok := q.Choice(11)
	assert.True(t, ok)
	assert.Equal(t, "No", choice.Text)

	_, ok = q.Choice(99)
	assert.False(t, ok)
}
