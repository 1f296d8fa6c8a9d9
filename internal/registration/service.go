// Package registration builds and submits the finalized registration
// aggregate: validation, duplicate checks, PIX payload generation, forwarding
// to the spreadsheet collaborator and local persistence.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ibgp-events/backend/internal/cpf"
	"github.com/ibgp-events/backend/internal/models"
	"github.com/ibgp-events/backend/internal/pix"
	"github.com/ibgp-events/backend/internal/session"
)

var (
	// ErrDuplicateTaxID means the responsible party's CPF was already registered.
	ErrDuplicateTaxID = errors.New("tax id already registered")
	// ErrCollaborator means forwarding to the spreadsheet webhook failed. The
	// session is kept intact so the user can retry manually.
	ErrCollaborator = errors.New("submission collaborator unavailable")
)

// ValidationError carries the field-level errors that block a submit.
type ValidationError struct {
	Fields []session.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("registration has %d invalid fields", len(e.Fields))
}

// Collaborator is the external spreadsheet-backed webhook that stores
// registrations and answers duplicate-CPF queries.
type Collaborator interface {
	Submit(ctx context.Context, reg *models.Registration) error
	TaxIDExists(ctx context.Context, taxID string) (bool, error)
}

// Repo persists submitted registrations locally.
type Repo interface {
	Create(ctx context.Context, reg *models.Registration) error
	ExistsByTaxID(ctx context.Context, taxID string) (bool, error)
}

// PixConfig is the merchant identity encoded into PIX payloads.
type PixConfig struct {
	Key          string
	MerchantName string
	MerchantCity string
}

// Result is the outcome of a successful submit.
type Result struct {
	Registration *models.Registration `json:"registration"`
	PixCode      string               `json:"pix_code,omitempty"`
}

// Service runs the submit flow for a form session.
type Service struct {
	repo         Repo
	collaborator Collaborator
	pixCfg       PixConfig
	logger       *zap.Logger
}

// NewService creates a registration service.
func NewService(repo Repo, collaborator Collaborator, pixCfg PixConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, collaborator: collaborator, pixCfg: pixCfg, logger: logger}
}

// Submit validates the session, builds a fresh Registration aggregate for
// this attempt and forwards it. The aggregate is never mutated afterwards; a
// retry builds a new one with a new idempotency token.
func (s *Service) Submit(ctx context.Context, sess *session.Session) (*Result, error) {
	if errs := sess.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	taxID := sess.Participants[0].TaxID
	if err := s.checkDuplicate(ctx, taxID); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		ID:               uuid.New(),
		PaymentMethod:    sess.PaymentMethod,
		Total:            sess.Total(),
		Participants:     append([]models.Participant(nil), sess.Participants...),
		IdempotencyToken: uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
	}

	res := &Result{Registration: reg}
	if reg.PaymentMethod == models.PaymentPix {
		res.PixCode = pix.Encode(s.pixCfg.Key, s.pixCfg.MerchantName, s.pixCfg.MerchantCity, reg.Total)
	}

	if err := s.collaborator.Submit(ctx, reg); err != nil {
		s.logger.Error("collaborator submit failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	if err := s.repo.Create(ctx, reg); err != nil {
		// The collaborator already has the row; keep the submit a success but
		// record the gap.
		s.logger.Error("local persist failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
	}

	s.logger.Info("registration submitted",
		zap.String("registration_id", reg.ID.String()),
		zap.String("payment_method", string(reg.PaymentMethod)),
		zap.Float64("total", reg.Total),
		zap.Int("participants", len(reg.Participants)),
	)
	return res, nil
}

// TaxIDExists answers the duplicate-CPF existence query, preferring the local
// store and falling back to the collaborator. The CPF is normalized to bare
// digits first, so masked and unmasked input resolve identically.
func (s *Service) TaxIDExists(ctx context.Context, taxID string) (bool, error) {
	taxID = cpf.Digits(taxID)
	exists, err := s.repo.ExistsByTaxID(ctx, taxID)
	if err != nil {
		return false, fmt.Errorf("local tax id lookup: %w", err)
	}
	if exists {
		return true, nil
	}
	remote, err := s.collaborator.TaxIDExists(ctx, taxID)
	if err != nil {
		// Availability over the duplicate check: the local answer stands.
		s.logger.Warn("collaborator tax id lookup failed", zap.Error(err))
		return false, nil
	}
	return remote, nil
}

func (s *Service) checkDuplicate(ctx context.Context, taxID string) error {
	exists, err := s.TaxIDExists(ctx, taxID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateTaxID
	}
	return nil
}
