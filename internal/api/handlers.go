package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vohyz/cocFightAgent/internal/constants"
	"github.com/vohyz/cocFightAgent/internal/dice"
	"github.com/vohyz/cocFightAgent/internal/service"
	"github.com/vohyz/cocFightAgent/internal/storage"
)

// EncounterHandler exposes the encounter lifecycle over HTTP.
type EncounterHandler struct {
	svc *service.EncounterService
}

func NewEncounterHandler(svc *service.EncounterService) *EncounterHandler {
	return &EncounterHandler{svc: svc}
}

type InputRequest struct {
	Text string `json:"text"`
}

type DiceRequest struct {
	Notation string `json:"notation"`
}

// CreateEncounter starts a new encounter from the configured scenario and
// returns the first suspended view.
func (h *EncounterHandler) CreateEncounter(c *gin.Context) {
	view, err := h.svc.CreateEncounter(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrMsgInternal})
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetEncounter returns the current view of an encounter without advancing it.
func (h *EncounterHandler) GetEncounter(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	view, err := h.svc.GetEncounter(sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitInput feeds one piece of player text to an encounter and returns
// the next suspended view.
func (h *EncounterHandler) SubmitInput(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMsgInvalidRequest})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMsgPlayerTextRequired})
		return
	}
	view, err := h.svc.Invoke(c.Request.Context(), sessionID, text)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RollDice evaluates standard dice notation. The same roller backs the
// collaborator's tool calls; this endpoint lets players roll in the open.
func (h *EncounterHandler) RollDice(c *gin.Context) {
	var req DiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMsgInvalidRequest})
		return
	}
	res, err := dice.Roll(strings.TrimSpace(req.Notation))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMsgInvalidNotation})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Health reports process liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func sessionIDParam(c *gin.Context) (string, bool) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if _, err := uuid.Parse(sessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMsgInvalidSessionID})
		return "", false
	}
	return sessionID, true
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrEncounterNotFound):
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrMsgEncounterNotFound})
	case errors.Is(err, service.ErrEncounterFinished), errors.Is(err, service.ErrEncounterExpired):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrMsgEncounterOver})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrMsgInternal})
	}
}
