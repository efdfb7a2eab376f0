package domain

import "time"

// EmergencyCategory selects which immediate-action checklist applies to an
// emergent case.
type EmergencyCategory string

const (
	EmergencyChestPain       EmergencyCategory = "chest_pain"
	EmergencyBreathing       EmergencyCategory = "breathing"
	EmergencyStroke          EmergencyCategory = "stroke"
	EmergencyUnconsciousness EmergencyCategory = "unconsciousness"
	EmergencyGeneric         EmergencyCategory = "generic"
)

func (c EmergencyCategory) String() string {
	return string(c)
}

// EmergencyContacts are the public emergency numbers referenced by advisories.
type EmergencyContacts struct {
	Ambulance string `json:"ambulance" mapstructure:"ambulance"`
	Police    string `json:"police" mapstructure:"police"`
	Fire      string `json:"fire" mapstructure:"fire"`
}

// DefaultEmergencyContacts are the mainland China public emergency numbers.
func DefaultEmergencyContacts() EmergencyContacts {
	return EmergencyContacts{
		Ambulance: "120",
		Police:    "110",
		Fire:      "119",
	}
}

// EmergencyAdvisory is returned alongside a positive emergency
// classification.
type EmergencyAdvisory struct {
	Category         EmergencyCategory `json:"category"`
	Advice           string            `json:"advice"`
	ImmediateActions []string          `json:"immediate_actions"`
	EmergencyContact string            `json:"emergency_contact"`
	MatchedKeyword   string            `json:"matched_keyword"`
}

// EmergencyAlert is handed to the Notifier when an emergent case carries
// contact information.
type EmergencyAlert struct {
	ID               string            `json:"id"`
	RequestID        string            `json:"request_id,omitempty"`
	Contact          ContactInfo       `json:"contact"`
	Symptoms         []string          `json:"symptoms"`
	Category         EmergencyCategory `json:"category"`
	EmergencyContact string            `json:"emergency_contact"`
	CreatedAt        time.Time         `json:"created_at"`
}
