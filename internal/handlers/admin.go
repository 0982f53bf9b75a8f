package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/polls-app/polls/internal/models"
	"github.com/polls-app/polls/internal/polls"
)

// AdminHandler lets staff publish questions and extend their choices.
type AdminHandler struct {
	questions *polls.Questions
}

func NewAdminHandler(questions *polls.Questions) *AdminHandler {
	return &AdminHandler{questions: questions}
}

func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, bindingError(err))
		return
	}
	if input.PublishedAt.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "fields": gin.H{"pub_date": "This field is required."}})
		return
	}

	question, err := h.questions.Create(c.Request.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	log.Info().Uint("question", question.ID).Msg("Question created")
	c.JSON(http.StatusCreated, question)
}

func (h *AdminHandler) AddChoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var input models.AddChoiceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, bindingError(err))
		return
	}

	choice, err := h.questions.AddChoice(c.Request.Context(), id, input.Text)
	if errors.Is(err, polls.ErrQuestionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to add choice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add choice"})
		return
	}

	c.JSON(http.StatusCreated, choice)
}
