// Package session owns the server-side state of one registration form: the
// ordered participant list and the selected payment method. Mutations are
// total (never panic) and may leave the session transiently invalid; errors
// only surface through Validate.
package session

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ibgp-events/backend/internal/cpf"
	"github.com/ibgp-events/backend/internal/models"
)

// Updatable participant field names accepted by UpdateParticipant.
const (
	FieldName       = "name"
	FieldPhone      = "phone"
	FieldTicketType = "ticket_type"
	FieldTaxID      = "tax_id"
)

// phonePattern is the fully masked form required of the responsible party.
var phonePattern = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)

// FieldError is one validation failure, addressed to a participant field.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Session is the in-progress registration form for one page load.
type Session struct {
	ID            uuid.UUID            `json:"id"`
	Participants  []models.Participant `json:"participants"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// New creates a session with a single default participant, who is the
// responsible party.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:            uuid.New(),
		Participants:  []models.Participant{models.NewParticipant()},
		PaymentMethod: models.PaymentPix,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AddParticipant appends a new participant with the default ticket type and
// its price. Always succeeds.
func (s *Session) AddParticipant() {
	s.Participants = append(s.Participants, models.NewParticipant())
	s.touch()
}

// RemoveParticipant removes the participant at index i. Removing the last
// remaining participant, or an out-of-range index, is a no-op.
func (s *Session) RemoveParticipant(i int) {
	if len(s.Participants) <= 1 || i < 0 || i >= len(s.Participants) {
		return
	}
	s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
	s.touch()
}

// UpdateParticipant sets one field on the participant at index i and reruns
// derived-field logic: ticket changes reset the price from the fixed table,
// phone and tax id input is masked. Out-of-range indexes and unknown fields
// are no-ops.
func (s *Session) UpdateParticipant(i int, field, value string) {
	if i < 0 || i >= len(s.Participants) {
		return
	}
	p := &s.Participants[i]
	switch field {
	case FieldName:
		p.Name = value
	case FieldPhone:
		p.Phone = MaskPhone(value)
	case FieldTicketType:
		p.TicketType = models.TicketType(value)
		p.Value = models.PriceFor(p.TicketType)
	case FieldTaxID:
		p.TaxID = cpf.Mask(value)
	default:
		return
	}
	s.touch()
}

// SetPaymentMethod selects how the total will be paid. Unknown methods are
// rejected at validation time, not here.
func (s *Session) SetPaymentMethod(m models.PaymentMethod) {
	s.PaymentMethod = m
	s.touch()
}

// Total is the sum of all participants' values. It is derived on every call
// and never cached.
func (s *Session) Total() float64 {
	var total float64
	for _, p := range s.Participants {
		total += p.Value
	}
	return total
}

// Validate returns every field-level error currently present. An empty result
// means the session is ready to submit.
func (s *Session) Validate() []FieldError {
	var errs []FieldError
	for i, p := range s.Participants {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, FieldError{Index: i, Field: FieldName, Message: "name is required"})
		}
		if !p.TicketType.Valid() {
			errs = append(errs, FieldError{Index: i, Field: FieldTicketType, Message: "unknown ticket type"})
		}
	}
	// Responsible party carries the mandatory contact fields.
	if len(s.Participants) > 0 {
		r := s.Participants[0]
		if !phonePattern.MatchString(r.Phone) {
			errs = append(errs, FieldError{Index: 0, Field: FieldPhone, Message: "phone must match (DD) DDDDD-DDDD"})
		}
		if !cpf.Valid(r.TaxID) {
			errs = append(errs, FieldError{Index: 0, Field: FieldTaxID, Message: "invalid CPF"})
		}
	}
	if !s.PaymentMethod.Valid() {
		errs = append(errs, FieldError{Index: -1, Field: "payment_method", Message: "unknown payment method"})
	}
	return errs
}

// MaskPhone formats progressive phone input as (DD) DDDDD-DDDD: strips
// non-digits, truncates to 11 digits and re-inserts the area-code parentheses
// and hyphen once enough digits are present.
func MaskPhone(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) > 11 {
		d = d[:11]
	}
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return "(" + d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
