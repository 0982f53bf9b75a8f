package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/polls-app/polls/internal/accounts"
	"github.com/polls-app/polls/internal/clock"
	"github.com/polls-app/polls/internal/middleware"
	"github.com/polls-app/polls/internal/models"
	"github.com/polls-app/polls/internal/polls"
)

const indexPath = "/polls/"

// WebHandler serves the HTML poll pages.
type WebHandler struct {
	questions *polls.Questions
	ledger    *polls.Ledger
	results   *polls.Results
	accounts  *accounts.Service
	receipts  receipts
	clock     clock.Clock
	secure    bool
}

func NewWebHandler(deps Deps) *WebHandler {
	return &WebHandler{
		questions: deps.Questions,
		ledger:    deps.Ledger,
		results:   deps.Results,
		accounts:  deps.Accounts,
		receipts:  receipts{accounts: deps.Accounts, notifier: deps.Notifier},
		clock:     deps.Clock,
		secure:    deps.SecureCookies,
	}
}

// DetailPath is the voting form for the question in the path.
func DetailPath(c *gin.Context) string {
	return fmt.Sprintf("/polls/%s/", c.Param("id"))
}

// VoteForm answers a GET on the vote URL, which a browser issues when it
// follows a redirect there, by sending it to the form.
func (h *WebHandler) VoteForm(c *gin.Context) {
	c.Redirect(http.StatusFound, DetailPath(c))
}

type indexEntry struct {
	Question models.Question
	Recent   bool
}

func unavailableMessage(q *models.Question) string {
	return fmt.Sprintf("Question \"%s\" is not available.", q.Text)
}

// page builds the template data every page shares.
func (h *WebHandler) page(c *gin.Context, title string) gin.H {
	return pageData(c, h.accounts, title, h.secure)
}

func pageData(c *gin.Context, accountsService *accounts.Service, title string, secure bool) gin.H {
	data := gin.H{"Title": title, "Flash": popFlash(c, secure)}
	if userID, ok := middleware.UserID(c); ok {
		if user, err := accountsService.Get(c.Request.Context(), userID); err == nil {
			data["User"] = user
		}
	}
	return data
}

func (h *WebHandler) renderError(c *gin.Context, status int, message string) {
	data := h.page(c, http.StatusText(status))
	data["Status"] = status
	data["Message"] = message
	c.HTML(status, "error.tmpl", data)
}

func (h *WebHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, indexPath)
}

// Index lists the five most recently published questions.
func (h *WebHandler) Index(c *gin.Context) {
	now := h.clock.Now()

	questions, err := h.questions.LatestPublished(c.Request.Context(), now, polls.LatestLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list questions")
		h.renderError(c, http.StatusInternalServerError, "Failed to fetch questions.")
		return
	}

	data := h.page(c, "Polls")
	data["Questions"] = lo.Map(questions, func(q models.Question, _ int) indexEntry {
		return indexEntry{Question: q, Recent: q.WasPublishedRecently(now)}
	})
	c.HTML(http.StatusOK, "index.tmpl", data)
}

// loadVotable resolves the question in the path. Unknown ids render 404,
// questions outside their voting window redirect to the index with a flash.
func (h *WebHandler) loadVotable(c *gin.Context) *models.Question {
	id, ok := parseID(c)
	if !ok {
		h.renderError(c, http.StatusNotFound, "No question matches the given query.")
		return nil
	}

	question, err := h.questions.Get(c.Request.Context(), id)
	if errors.Is(err, polls.ErrQuestionNotFound) {
		h.renderError(c, http.StatusNotFound, "No question matches the given query.")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Uint("question", id).Msg("Failed to load question")
		h.renderError(c, http.StatusInternalServerError, "Failed to fetch question.")
		return nil
	}

	if !question.CanVote(h.clock.Now()) {
		setFlash(c, unavailableMessage(question), h.secure)
		c.Redirect(http.StatusFound, indexPath)
		return nil
	}
	return question
}

func (h *WebHandler) renderDetail(c *gin.Context, question *models.Question, errorMessage string) {
	data := h.page(c, question.Text)
	data["Question"] = question
	data["ErrorMessage"] = errorMessage
	data["VotedChoice"] = ""
	data["VotedChoiceID"] = uint(0)

	if userID, ok := middleware.UserID(c); ok {
		vote, err := h.ledger.CurrentVote(c.Request.Context(), userID, question.ID)
		if err == nil {
			data["VotedChoice"] = vote.Choice.Text
			data["VotedChoiceID"] = vote.ChoiceID
		} else if !errors.Is(err, polls.ErrNoVote) {
			log.Error().Err(err).Msg("Failed to load current vote")
		}
	}

	c.HTML(http.StatusOK, "detail.tmpl", data)
}

// Detail shows the voting form with the visitor's current choice selected.
func (h *WebHandler) Detail(c *gin.Context) {
	question := h.loadVotable(c)
	if question == nil {
		return
	}
	h.renderDetail(c, question, "")
}

func (h *WebHandler) Results(c *gin.Context) {
	question := h.loadVotable(c)
	if question == nil {
		return
	}

	tally, err := h.results.Tally(c.Request.Context(), question)
	if err != nil {
		log.Error().Err(err).Msg("Failed to tally votes")
		h.renderError(c, http.StatusInternalServerError, "Failed to fetch results.")
		return
	}

	data := h.page(c, question.Text)
	data["Question"] = question
	data["Tally"] = tally
	c.HTML(http.StatusOK, "results.tmpl", data)
}

// Vote handles the form post. Login is enforced by the route.
func (h *WebHandler) Vote(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Redirect(http.StatusFound, middleware.LoginURL(DetailPath(c)))
		return
	}

	question := h.loadVotable(c)
	if question == nil {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBind(&input); err != nil || input.ChoiceID == 0 {
		h.renderDetail(c, question, noChoiceMessage)
		return
	}

	vote, err := h.ledger.CastVote(c.Request.Context(), userID, question, input.ChoiceID)
	if errors.Is(err, polls.ErrInvalidChoice) {
		h.renderDetail(c, question, noChoiceMessage)
		return
	}
	if err != nil {
		log.Error().Err(err).Uint("question", question.ID).Msg("Failed to cast vote")
		h.renderError(c, http.StatusInternalServerError, "Failed to record your vote.")
		return
	}

	h.receipts.send(c.Request.Context(), userID, question, vote.Choice)

	c.Redirect(http.StatusFound, fmt.Sprintf("/polls/%d/results/", question.ID))
}
