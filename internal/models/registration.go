package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod selects how the registration total will be paid.
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCash PaymentMethod = "dinheiro"
	PaymentCard PaymentMethod = "cartao"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentPix, PaymentCash, PaymentCard:
		return true
	}
	return false
}

// Registration is the submission-time aggregate built from a form session.
// It is constructed fresh for every submit attempt and never mutated after
// construction. IdempotencyToken lets the receiving collaborator deduplicate
// retries of the same attempt.
type Registration struct {
	ID               uuid.UUID     `json:"id"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	Total            float64       `json:"total"`
	Participants     []Participant `json:"participants"`
	IdempotencyToken string        `json:"idempotency_token"`
	CreatedAt        time.Time     `json:"created_at"`
}
