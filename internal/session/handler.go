package session

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ibgp-events/backend/internal/models"
	"github.com/ibgp-events/backend/pkg/response"
)

// Handler exposes the form session operations over HTTP.
type Handler struct {
	store  Storage
	logger *zap.Logger
}

// NewHandler creates a session handler.
func NewHandler(store Storage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// UpdateRequest is the body for PATCH .../participants/:index.
type UpdateRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// PaymentRequest is the body for PUT /sessions/:id/payment.
type PaymentRequest struct {
	Method string `json:"method" binding:"required"`
}

// view is the session state returned by every operation.
func view(s *Session) gin.H {
	return gin.H{
		"id":             s.ID,
		"participants":   s.Participants,
		"payment_method": s.PaymentMethod,
		"total":          s.Total(),
	}
}

// Create handles POST /sessions. Starts a fresh form with one participant.
func (h *Handler) Create(c *gin.Context) {
	s := New()
	if err := h.store.Save(c.Request.Context(), s); err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	response.Created(c, view(s))
}

// Get handles GET /sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, view(s))
}

// AddParticipant handles POST /sessions/:id/participants.
func (h *Handler) AddParticipant(c *gin.Context) {
	h.mutate(c, func(s *Session) { s.AddParticipant() })
}

// RemoveParticipant handles DELETE /sessions/:id/participants/:index.
// Removing the last participant or an out-of-range index is a silent no-op,
// mirroring the form behavior.
func (h *Handler) RemoveParticipant(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid participant index")
		return
	}
	h.mutate(c, func(s *Session) { s.RemoveParticipant(index) })
}

// UpdateParticipant handles PATCH /sessions/:id/participants/:index.
func (h *Handler) UpdateParticipant(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid participant index")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.mutate(c, func(s *Session) { s.UpdateParticipant(index, req.Field, req.Value) })
}

// SetPayment handles PUT /sessions/:id/payment.
func (h *Handler) SetPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.mutate(c, func(s *Session) { s.SetPaymentMethod(models.PaymentMethod(req.Method)) })
}

// load parses the :id param and fetches the session, writing the error
// response itself when something is wrong.
func (h *Handler) load(c *gin.Context) (*Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return nil, false
	}
	s, err := h.store.Get(c.Request.Context(), id)
	if err == ErrNotFound {
		response.NotFound(c, "session not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("load session failed", zap.String("session_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load session")
		return nil, false
	}
	return s, true
}

// mutate is the load-apply-save cycle shared by every mutation endpoint.
func (h *Handler) mutate(c *gin.Context, apply func(*Session)) {
	s, ok := h.load(c)
	if !ok {
		return
	}
	apply(s)
	if err := h.store.Save(c.Request.Context(), s); err != nil {
		h.logger.Error("save session failed", zap.String("session_id", s.ID.String()), zap.Error(err))
		response.Internal(c, "failed to save session")
		return
	}
	response.OK(c, view(s))
}
