package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/polls-app/polls/internal/clock"
	"github.com/polls-app/polls/internal/middleware"
	"github.com/polls-app/polls/internal/models"
	"github.com/polls-app/polls/internal/polls"
)

const noChoiceMessage = "You didn't select a choice."

type QuestionHandler struct {
	questions *polls.Questions
	ledger    *polls.Ledger
	results   *polls.Results
	receipts  receipts
	clock     clock.Clock
}

func NewQuestionHandler(deps Deps) *QuestionHandler {
	return &QuestionHandler{
		questions: deps.Questions,
		ledger:    deps.Ledger,
		results:   deps.Results,
		receipts:  receipts{accounts: deps.Accounts, notifier: deps.Notifier},
		clock:     deps.Clock,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// loadVotable fetches the question named in the path and checks its voting
// window. It writes the error response itself and returns nil on failure.
func (h *QuestionHandler) loadVotable(c *gin.Context) *models.Question {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return nil
	}

	question, err := h.questions.Get(c.Request.Context(), id)
	if errors.Is(err, polls.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return nil
	}
	if err != nil {
		log.Error().Err(err).Uint("question", id).Msg("Failed to load question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch question"})
		return nil
	}

	if !question.CanVote(h.clock.Now()) {
		c.JSON(http.StatusForbidden, gin.H{"error": unavailableMessage(question)})
		return nil
	}
	return question
}

// GetQuestions returns the latest published questions
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	now := h.clock.Now()

	questions, err := h.questions.LatestPublished(c.Request.Context(), now, polls.LatestLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list questions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	responses := lo.Map(questions, func(q models.Question, _ int) gin.H {
		return gin.H{
			"id":                     q.ID,
			"question_text":          q.Text,
			"pub_date":               q.PublishedAt,
			"end_date":               q.EndsAt,
			"was_published_recently": q.WasPublishedRecently(now),
			"can_vote":               q.CanVote(now),
		}
	})

	c.JSON(http.StatusOK, responses)
}

// GetQuestion returns a votable question with its choices
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question := h.loadVotable(c)
	if question == nil {
		return
	}
	now := h.clock.Now()

	response := gin.H{
		"id":                     question.ID,
		"question_text":          question.Text,
		"pub_date":               question.PublishedAt,
		"end_date":               question.EndsAt,
		"was_published_recently": question.WasPublishedRecently(now),
		"can_vote":               true,
		"choices":                question.Choices,
	}

	if userID, ok := middleware.UserID(c); ok {
		vote, err := h.ledger.CurrentVote(c.Request.Context(), userID, question.ID)
		switch {
		case err == nil:
			response["my_vote"] = vote.ChoiceID
		case errors.Is(err, polls.ErrNoVote):
			response["my_vote"] = nil
		default:
			log.Error().Err(err).Msg("Failed to load current vote")
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *QuestionHandler) GetResults(c *gin.Context) {
	question := h.loadVotable(c)
	if question == nil {
		return
	}

	tally, err := h.results.Tally(c.Request.Context(), question)
	if err != nil {
		log.Error().Err(err).Msg("Failed to tally votes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            question.ID,
		"question_text": question.Text,
		"results":       tally.Choices,
		"total":         tally.Total,
	})
}

// Vote records or changes the caller's vote (PROTECTED - requires authentication)
func (h *QuestionHandler) Vote(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	question := h.loadVotable(c)
	if question == nil {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.ChoiceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": noChoiceMessage})
		return
	}

	vote, err := h.ledger.CastVote(c.Request.Context(), userID, question, input.ChoiceID)
	if errors.Is(err, polls.ErrInvalidChoice) {
		c.JSON(http.StatusBadRequest, gin.H{"error": noChoiceMessage})
		return
	}
	if err != nil {
		log.Error().Err(err).Uint("question", question.ID).Msg("Failed to cast vote")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record vote"})
		return
	}

	h.receipts.send(c.Request.Context(), userID, question, vote.Choice)

	c.JSON(http.StatusOK, gin.H{
		"message": "Vote recorded",
		"vote":    vote,
	})
}
