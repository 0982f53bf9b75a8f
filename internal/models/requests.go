package models

import "time"

type CreateQuestionRequest struct {
	Text        string     `json:"question_text" binding:"required,max=200"`
	PublishedAt time.Time  `json:"pub_date" binding:"required"`
	EndsAt      *time.Time `json:"end_date"`
	Choices     []string   `json:"choices" binding:"dive,required,max=200"`
}

type AddChoiceRequest struct {
	Text string `json:"choice_text" binding:"required,max=200"`
}

type VoteRequest struct {
	ChoiceID uint `json:"choice_id" form:"choice"`
}
