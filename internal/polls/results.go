package polls

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/polls-app/polls/internal/models"
)

type ChoiceResult struct {
	Choice     models.Choice `json:"choice"`
	Votes      int64         `json:"votes"`
	Percentage float64       `json:"percentage"`
}

type Tally struct {
	QuestionID uint           `json:"question_id"`
	Choices    []ChoiceResult `json:"choices"`
	Total      int64          `json:"total"`
}

type choiceCount struct {
	ChoiceID uint
	Votes    int64
}

// Results counts votes on demand. Nothing here is cached.
type Results struct {
	db *gorm.DB
}

func NewResults(db *gorm.DB) *Results {
	return &Results{db: db}
}

// CountVotes returns the number of votes currently assigned to a choice.
func (r *Results) CountVotes(ctx context.Context, choiceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Vote{}).Where("choice_id = ?", choiceID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count votes for choice %d: %w", choiceID, err)
	}
	return count, nil
}

// Tally counts votes for every choice of question in one query. Choices
// without votes are reported with zero.
func (r *Results) Tally(ctx context.Context, question *models.Question) (*Tally, error) {
	var rows []choiceCount

	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("choice_id, COUNT(*) AS votes").
		Where("question_id = ?", question.ID).
		Group("choice_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to tally question %d: %w", question.ID, err)
	}

	counts := lo.SliceToMap(rows, func(row choiceCount) (uint, int64) {
		return row.ChoiceID, row.Votes
	})

	tally := &Tally{QuestionID: question.ID}
	tally.Choices = lo.Map(question.Choices, func(choice models.Choice, _ int) ChoiceResult {
		return ChoiceResult{Choice: choice, Votes: counts[choice.ID]}
	})
	tally.Total = lo.SumBy(tally.Choices, func(result ChoiceResult) int64 { return result.Votes })

	if tally.Total > 0 {
		for i := range tally.Choices {
			tally.Choices[i].Percentage = float64(tally.Choices[i].Votes) * 100 / float64(tally.Total)
		}
	}
	return tally, nil
}
