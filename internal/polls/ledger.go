package polls

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/polls-app/polls/internal/models"
)

const uniqueViolation = "23505"

// Ledger records at most one vote per voter and question. The caller checks
// the voting window before casting.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// CastVote records voterID's choice on question, replacing any earlier
// choice. The returned vote has its Choice loaded.
func (l *Ledger) CastVote(ctx context.Context, voterID uint, question *models.Question, choiceID uint) (*models.Vote, error) {
	if _, ok := question.Choice(choiceID); !ok {
		return nil, ErrInvalidChoice
	}

	vote, err := l.upsert(ctx, voterID, question.ID, choiceID)
	if isDuplicate(err) {
		// a concurrent first vote by the same voter won the insert
		vote, err = l.upsert(ctx, voterID, question.ID, choiceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}

	if err := l.db.WithContext(ctx).Preload("Choice").First(vote, vote.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload vote: %w", err)
	}
	return vote, nil
}

func (l *Ledger) upsert(ctx context.Context, voterID, questionID, choiceID uint) (*models.Vote, error) {
	var vote models.Vote

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND question_id = ?", voterID, questionID).First(&vote).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.Vote{UserID: voterID, QuestionID: questionID, ChoiceID: choiceID}
			return tx.Create(&vote).Error
		case err != nil:
			return err
		}

		if vote.ChoiceID == choiceID {
			return nil
		}
		vote.ChoiceID = choiceID
		return tx.Model(&vote).Update("choice_id", choiceID).Error
	})
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// CurrentVote returns the voter's vote on a question, or ErrNoVote.
func (l *Ledger) CurrentVote(ctx context.Context, voterID, questionID uint) (*models.Vote, error) {
	var vote models.Vote

	err := l.db.WithContext(ctx).
		Preload("Choice").
		Where("user_id = ? AND question_id = ?", voterID, questionID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoVote
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vote: %w", err)
	}
	return &vote, nil
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
