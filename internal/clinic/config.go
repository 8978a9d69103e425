// Package clinic provides clinic configuration and business-hours logic.
package clinic

import "time"

// DayHours represents the opening hours for a single day.
// Nil means the clinic is closed that day.
type DayHours struct {
	Open  string `json:"open"`  // "08:00" in 24-hour format
	Close string `json:"close"` // "18:00" in 24-hour format
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// GetHoursForDay returns the hours for a given weekday (0=Sunday, 6=Saturday).
func (b *BusinessHours) GetHoursForDay(weekday time.Weekday) *DayHours {
	switch weekday {
	case time.Sunday:
		return b.Sunday
	case time.Monday:
		return b.Monday
	case time.Tuesday:
		return b.Tuesday
	case time.Wednesday:
		return b.Wednesday
	case time.Thursday:
		return b.Thursday
	case time.Friday:
		return b.Friday
	case time.Saturday:
		return b.Saturday
	default:
		return nil
	}
}

// HasAnyHours returns true if at least one day has business hours configured.
func (b *BusinessHours) HasAnyHours() bool {
	return b.Sunday != nil || b.Monday != nil || b.Tuesday != nil ||
		b.Wednesday != nil || b.Thursday != nil || b.Friday != nil || b.Saturday != nil
}

// ClinicConfig holds the per-clinic configuration the conversation flow reads.
// Templates may contain a literal {name} placeholder which is substituted with
// the caller's extracted name when known.
type ClinicConfig struct {
	ID             string `json:"id"`
	WhatsAppNumber string `json:"whatsapp_number"` // digits only, country code included
	Name           string `json:"name"`
	AgentName      string `json:"agent_name"`

	GreetingTemplate   string `json:"greeting_template"`
	FarewellTemplate   string `json:"farewell_template"`
	OutOfHoursTemplate string `json:"out_of_hours_template"`

	BusinessHours BusinessHours `json:"business_hours"`
	Timezone      string        `json:"timezone"` // e.g., "America/Sao_Paulo"
}

// DefaultConfig returns a sensible default configuration for a new clinic.
func DefaultConfig(id, whatsappNumber string) *ClinicConfig {
	return &ClinicConfig{
		ID:             id,
		WhatsAppNumber: normalizeNumber(whatsappNumber),
		Name:           "Clínica",
		AgentName:      "AtendeAI",
		GreetingTemplate: "Olá, {name}! Aqui é a assistente virtual da clínica. " +
			"Como posso ajudar você hoje?",
		FarewellTemplate: "Obrigada pelo contato, {name}! Qualquer coisa é só chamar. 😊",
		OutOfHoursTemplate: "Olá, {name}! No momento estamos fora do horário de atendimento. " +
			"Nossa equipe retorna sua mensagem no próximo horário comercial.",
		BusinessHours: BusinessHours{
			Monday:    &DayHours{Open: "08:00", Close: "18:00"},
			Tuesday:   &DayHours{Open: "08:00", Close: "18:00"},
			Wednesday: &DayHours{Open: "08:00", Close: "18:00"},
			Thursday:  &DayHours{Open: "08:00", Close: "18:00"},
			Friday:    &DayHours{Open: "08:00", Close: "18:00"},
			Saturday:  nil, // Closed
			Sunday:    nil, // Closed
		},
		Timezone: "America/Sao_Paulo",
	}
}
