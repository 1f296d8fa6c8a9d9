package models

// TicketType is the festival ticket category for one participant.
type TicketType string

const (
	TicketAdult TicketType = "adulto"
	TicketChild TicketType = "crianca"
	TicketFree  TicketType = "isento"
)

// Ticket prices in BRL, fixed by event pricing policy.
const (
	PriceAdult = 100.00
	PriceChild = 50.00
	PriceFree  = 0.00
)

// Valid reports whether t is a known ticket type.
func (t TicketType) Valid() bool {
	switch t {
	case TicketAdult, TicketChild, TicketFree:
		return true
	}
	return false
}

// PriceFor returns the fixed price for a ticket type. Unknown types price as zero.
func PriceFor(t TicketType) float64 {
	switch t {
	case TicketAdult:
		return PriceAdult
	case TicketChild:
		return PriceChild
	default:
		return PriceFree
	}
}

// Participant is one person on the registration form. The participant at
// index 0 is the responsible party and carries the mandatory contact fields.
type Participant struct {
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	TicketType TicketType `json:"ticket_type"`
	Value      float64    `json:"value"`
	TaxID      string     `json:"tax_id,omitempty"`
}

// NewParticipant returns a participant with the default ticket type and its price.
func NewParticipant() Participant {
	return Participant{TicketType: TicketAdult, Value: PriceAdult}
}
