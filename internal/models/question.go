package models

import "time"

// RecentWindow is how far back a publication date counts as "recent".
const RecentWindow = 24 * time.Hour

// Question is a poll prompt with a voting window of [PublishedAt, EndsAt].
// A nil EndsAt leaves the window open.
type Question struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Text        string     `gorm:"size:200;not null" json:"question_text"`
	PublishedAt time.Time  `gorm:"index;not null" json:"pub_date"`
	EndsAt      *time.Time `json:"end_date"`
	Choices     []Choice   `gorm:"constraint:OnDelete:CASCADE" json:"choices,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPublished reports whether the question is visible at now.
func (q *Question) IsPublished(now time.Time) bool {
	return !q.PublishedAt.After(now)
}

// WasPublishedRecently reports whether PublishedAt lies in [now-RecentWindow, now].
func (q *Question) WasPublishedRecently(now time.Time) bool {
	return !q.PublishedAt.Before(now.Add(-RecentWindow)) && !q.PublishedAt.After(now)
}

// CanVote reports whether now falls inside the voting window. Both ends
// are inclusive. EndsAt before PublishedAt yields an empty window.
func (q *Question) CanVote(now time.Time) bool {
	if !q.IsPublished(now) {
		return false
	}
	if q.EndsAt == nil {
		return true
	}
	return !now.Before(q.PublishedAt) && !now.After(*q.EndsAt)
}

// Choice returns the choice with the given id if it belongs to q.
func (q *Question) Choice(id uint) (Choice, bool) {
	for _, choice := range q.Choices {
		if choice.ID == id {
			return choice, true
		}
	}
	return Choice{}, false
}

func (q *Question) String() string {
	return q.Text
}
