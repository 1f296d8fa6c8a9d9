package registration

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ibgp-events/backend/internal/session"
	"github.com/ibgp-events/backend/pkg/response"
)

// Handler exposes submit and the duplicate-CPF existence query over HTTP.
type Handler struct {
	service *Service
	store   session.Storage
	logger  *zap.Logger
}

// NewHandler creates a registration handler.
func NewHandler(service *Service, store session.Storage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, store: store, logger: logger}
}

// Submit handles POST /sessions/:id/submit. A submit that is already in
// flight for the same session is rejected until the prior attempt resolves.
func (h *Handler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	ctx := c.Request.Context()

	sess, err := h.store.Get(ctx, id)
	if err == session.ErrNotFound {
		response.NotFound(c, "session not found")
		return
	}
	if err != nil {
		h.logger.Error("load session failed", zap.String("session_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load session")
		return
	}

	ok, err := h.store.AcquireSubmitLock(ctx, id)
	if err != nil {
		h.logger.Error("submit lock failed", zap.String("session_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to submit")
		return
	}
	if !ok {
		response.Conflict(c, "a submit for this session is already in progress")
		return
	}
	defer h.store.ReleaseSubmitLock(ctx, id)

	res, err := h.service.Submit(ctx, sess)
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}

	// The form is done; a new registration starts a new session.
	if err := h.store.Delete(ctx, id); err != nil {
		h.logger.Warn("delete session failed", zap.String("session_id", id.String()), zap.Error(err))
	}
	response.Created(c, res)
}

// TaxIDExists handles GET /registrations/tax-id/:cpf/exists.
func (h *Handler) TaxIDExists(c *gin.Context) {
	taxID := c.Param("cpf")
	if taxID == "" {
		response.BadRequest(c, "cpf required")
		return
	}
	exists, err := h.service.TaxIDExists(c.Request.Context(), taxID)
	if err != nil {
		h.logger.Error("tax id lookup failed", zap.Error(err))
		response.Internal(c, "failed to check tax id")
		return
	}
	response.OK(c, gin.H{"exists": exists})
}

func (h *Handler) writeSubmitError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.UnprocessableEntity(c, gin.H{"errors": verr.Fields})
	case errors.Is(err, ErrDuplicateTaxID):
		response.Conflict(c, "this CPF is already registered; contact the organizers to amend")
	case errors.Is(err, ErrCollaborator):
		response.BadGateway(c, "could not reach the registration sheet, please try again")
	default:
		h.logger.Error("submit failed", zap.Error(err))
		response.Internal(c, "failed to submit registration")
	}
}
