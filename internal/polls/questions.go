// Package polls holds the question catalogue, the vote ledger and the
// result aggregator.
package polls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/polls-app/polls/internal/cache"
	"github.com/polls-app/polls/internal/models"
)

// LatestLimit is how many questions the index pages show.
const LatestLimit = 5

type Questions struct {
	db    *gorm.DB
	cache cache.QuestionCache
}

func NewQuestions(db *gorm.DB, questionCache cache.QuestionCache) *Questions {
	if questionCache == nil {
		questionCache = cache.Nop{}
	}
	return &Questions{db: db, cache: questionCache}
}

// LatestPublished returns up to limit questions published at or before now,
// newest first. Questions scheduled for the future are never included.
func (q *Questions) LatestPublished(ctx context.Context, now time.Time, limit int) ([]models.Question, error) {
	var questions []models.Question

	err := q.db.WithContext(ctx).
		Where("published_at <= ?", now).
		Order("published_at desc").
		Order("id desc").
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// Get loads a question with its choices ordered by id.
func (q *Questions) Get(ctx context.Context, id uint) (*models.Question, error) {
	if cached, ok := q.cache.Get(ctx, id); ok {
		return cached, nil
	}

	var question models.Question
	err := q.db.WithContext(ctx).
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("choices.id asc")
		}).
		First(&question, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load question %d: %w", id, err)
	}

	q.cache.Set(ctx, &question)
	return &question, nil
}

// Create stores a question together with its initial choices.
func (q *Questions) Create(ctx context.Context, req models.CreateQuestionRequest) (*models.Question, error) {
	question := models.Question{
		Text:        req.Text,
		PublishedAt: req.PublishedAt.UTC(),
	}
	if req.EndsAt != nil {
		endsAt := req.EndsAt.UTC()
		question.EndsAt = &endsAt
	}
	for _, text := range req.Choices {
		question.Choices = append(question.Choices, models.Choice{Text: text})
	}

	if err := q.db.WithContext(ctx).Create(&question).Error; err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	q.cache.Delete(ctx, question.ID)
	return &question, nil
}

// AddChoice appends a choice to an existing question.
func (q *Questions) AddChoice(ctx context.Context, questionID uint, text string) (*models.Choice, error) {
	var exists int64
	if err := q.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", questionID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("failed to look up question %d: %w", questionID, err)
	}
	if exists == 0 {
		return nil, ErrQuestionNotFound
	}

	choice := models.Choice{QuestionID: questionID, Text: text}
	if err := q.db.WithContext(ctx).Create(&choice).Error; err != nil {
		return nil, fmt.Errorf("failed to add choice: %w", err)
	}

	q.cache.Delete(ctx, questionID)
	return &choice, nil
}

// Flush drops every cached question.
func (q *Questions) Flush(ctx context.Context) error {
	return q.cache.Flush(ctx)
}
