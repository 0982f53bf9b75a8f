package models

import "time"

// Choice is one selectable option of a Question. Its vote count is never
// stored; see polls.Results.
type Choice struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"index;not null" json:"question_id"`
	Text       string    `gorm:"size:200;not null" json:"choice_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c Choice) String() string {
	return c.Text
}
