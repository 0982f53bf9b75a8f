package models

import "time"

// Vote model - binds one user to one choice, at most one row per (user, question)
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_votes_user_question" json:"user_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_votes_user_question;index" json:"question_id"`
	ChoiceID   uint      `gorm:"not null;index" json:"choice_id"`
	Choice     Choice    `gorm:"constraint:OnDelete:CASCADE" json:"choice"`
	User       User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
