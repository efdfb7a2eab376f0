package service

import (
	"fmt"
	"strings"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// EmergencyKeywordTableVersion identifies the keyword table below. Bump it
// whenever the table changes.
const EmergencyKeywordTableVersion = "2024.3"

// EmergencyKeyword is one lowercase term of the emergency keyword table.
// Terms of a specific category also select that category's checklist.
type EmergencyKeyword struct {
	Term     string
	Category domain.EmergencyCategory
}

var emergencyKeywords = [...]EmergencyKeyword{
	// chest pain family
	{"胸痛", domain.EmergencyChestPain},
	{"急性胸痛", domain.EmergencyChestPain},
	{"心肌梗死", domain.EmergencyChestPain},
	{"心绞痛", domain.EmergencyChestPain},
	{"chest pain", domain.EmergencyChestPain},
	{"heart attack", domain.EmergencyChestPain},
	{"myocardial infarction", domain.EmergencyChestPain},
	{"angina", domain.EmergencyChestPain},

	// breathing family
	{"呼吸困难", domain.EmergencyBreathing},
	{"呼吸急促", domain.EmergencyBreathing},
	{"窒息", domain.EmergencyBreathing},
	{"difficulty breathing", domain.EmergencyBreathing},
	{"breathing difficulty", domain.EmergencyBreathing},
	{"shortness of breath", domain.EmergencyBreathing},
	{"suffocat", domain.EmergencyBreathing},
	{"choking", domain.EmergencyBreathing},
	{"asphyxia", domain.EmergencyBreathing},

	// stroke family
	{"剧烈头痛", domain.EmergencyStroke},
	{"突发性头痛", domain.EmergencyStroke},
	{"脑卒中", domain.EmergencyStroke},
	{"中风", domain.EmergencyStroke},
	{"瘫痪", domain.EmergencyStroke},
	{"语言障碍", domain.EmergencyStroke},
	{"突然无法说话", domain.EmergencyStroke},
	{"severe headache", domain.EmergencyStroke},
	{"sudden headache", domain.EmergencyStroke},
	{"stroke", domain.EmergencyStroke},
	{"paralysis", domain.EmergencyStroke},
	{"inability to speak", domain.EmergencyStroke},
	{"slurred speech", domain.EmergencyStroke},

	// unconsciousness family
	{"昏迷", domain.EmergencyUnconsciousness},
	{"意识丧失", domain.EmergencyUnconsciousness},
	{"coma", domain.EmergencyUnconsciousness},
	{"comatose", domain.EmergencyUnconsciousness},
	{"loss of consciousness", domain.EmergencyUnconsciousness},
	{"unconscious", domain.EmergencyUnconsciousness},

	// no specific checklist
	{"大量出血", domain.EmergencyGeneric},
	{"严重出血", domain.EmergencyGeneric},
	{"严重外伤", domain.EmergencyGeneric},
	{"高烧不退", domain.EmergencyGeneric},
	{"超高热", domain.EmergencyGeneric},
	{"抽搐", domain.EmergencyGeneric},
	{"癫痫发作", domain.EmergencyGeneric},
	{"剧烈腹痛", domain.EmergencyGeneric},
	{"急性腹痛", domain.EmergencyGeneric},
	{"腹部剧烈疼痛", domain.EmergencyGeneric},
	{"持续呕吐", domain.EmergencyGeneric},
	{"严重过敏", domain.EmergencyGeneric},
	{"过敏性休克", domain.EmergencyGeneric},
	{"休克", domain.EmergencyGeneric},
	{"晕厥", domain.EmergencyGeneric},
	{"突发视力丧失", domain.EmergencyGeneric},
	{"major bleeding", domain.EmergencyGeneric},
	{"severe bleeding", domain.EmergencyGeneric},
	{"heavy bleeding", domain.EmergencyGeneric},
	{"severe trauma", domain.EmergencyGeneric},
	{"persistent high fever", domain.EmergencyGeneric},
	{"seizure", domain.EmergencyGeneric},
	{"convulsion", domain.EmergencyGeneric},
	{"severe abdominal pain", domain.EmergencyGeneric},
	{"persistent vomiting", domain.EmergencyGeneric},
	{"anaphyla", domain.EmergencyGeneric},
	{"severe allergic reaction", domain.EmergencyGeneric},
	{"sudden vision loss", domain.EmergencyGeneric},
	{"fainting", domain.EmergencyGeneric},
}

// wholeWordTerms only match when not embedded in a longer Latin word, so
// "coma" does not fire on "glaucoma".
var wholeWordTerms = map[string]struct{}{
	"coma": {},
}

// EmergencyKeywords returns a copy of the keyword table in table order.
func EmergencyKeywords() []EmergencyKeyword {
	out := make([]EmergencyKeyword, len(emergencyKeywords))
	copy(out, emergencyKeywords[:])
	return out
}

// categoryPriority is the order in which checklists are selected.
var categoryPriority = [...]domain.EmergencyCategory{
	domain.EmergencyChestPain,
	domain.EmergencyBreathing,
	domain.EmergencyStroke,
	domain.EmergencyUnconsciousness,
}

var immediateActions = map[domain.EmergencyCategory][]string{
	domain.EmergencyChestPain: {
		"Keep the patient calm and still; avoid any exertion",
		"Help the patient into a comfortable half-sitting position",
		"If the patient has a heart condition and carries nitroglycerin, use it as prescribed",
		"If the patient loses consciousness, check breathing and pulse and start CPR if needed",
	},
	domain.EmergencyBreathing: {
		"Help the patient into a half-reclining position to ease breathing",
		"Make sure the surrounding air is circulating freely",
		"Keep the patient calm and emotionally steady",
		"If the airway is blocked, perform the Heimlich maneuver",
	},
	domain.EmergencyStroke: {
		"Lay the patient flat with the head slightly raised",
		"Keep the patient still and calm",
		"Note the time the symptoms started",
		"Do not give any medication unless directed by a doctor",
	},
	domain.EmergencyUnconsciousness: {
		"Keep the airway open and turn the head to one side to prevent choking",
		"Check breathing and pulse",
		"If there is no breathing or pulse, start CPR immediately",
		"Do not give the patient food or water",
	},
	domain.EmergencyGeneric: {
		"Stay with the patient and keep them still",
		"Do not give food, drink or medication",
		"Be ready to describe the symptoms and when they started",
	},
}

// EmergencyClassifier decides whether a symptom set is a medical emergency.
// It performs no I/O and is safe for concurrent use.
type EmergencyClassifier struct {
	contacts domain.EmergencyContacts
}

// NewEmergencyClassifier creates a classifier whose advisories reference
// the given emergency numbers. Blank numbers fall back to the defaults.
func NewEmergencyClassifier(contacts domain.EmergencyContacts) *EmergencyClassifier {
	defaults := domain.DefaultEmergencyContacts()
	if contacts.Ambulance == "" {
		contacts.Ambulance = defaults.Ambulance
	}
	if contacts.Police == "" {
		contacts.Police = defaults.Police
	}
	if contacts.Fire == "" {
		contacts.Fire = defaults.Fire
	}
	return &EmergencyClassifier{contacts: contacts}
}

// Contacts returns the configured emergency numbers.
func (c *EmergencyClassifier) Contacts() domain.EmergencyContacts {
	return c.contacts
}

// Classify reports whether any symptom's name or description contains an
// emergency keyword. A positive result carries the advisory of the highest
// priority family present.
func (c *EmergencyClassifier) Classify(symptoms []domain.Symptom) (bool, *domain.EmergencyAdvisory) {
	var b strings.Builder
	for i := range symptoms {
		b.WriteString(symptoms[i].Name)
		b.WriteByte(' ')
		b.WriteString(symptoms[i].Description)
		b.WriteByte('\n')
	}
	return c.ScreenText(b.String())
}

// ScreenText applies the keyword table to free text.
func (c *EmergencyClassifier) ScreenText(text string) (bool, *domain.EmergencyAdvisory) {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	var firstMatch *EmergencyKeyword
	byCategory := make(map[domain.EmergencyCategory]string)
	for i := range emergencyKeywords {
		kw := &emergencyKeywords[i]
		if !kw.matches(text) {
			continue
		}
		if firstMatch == nil {
			firstMatch = kw
		}
		if _, ok := byCategory[kw.Category]; !ok {
			byCategory[kw.Category] = kw.Term
		}
	}
	if firstMatch == nil {
		return false, nil
	}

	category, term := domain.EmergencyGeneric, firstMatch.Term
	for _, candidate := range categoryPriority {
		if matched, ok := byCategory[candidate]; ok {
			category, term = candidate, matched
			break
		}
	}

	return true, c.advisory(category, term)
}

func (kw *EmergencyKeyword) matches(text string) bool {
	if _, ok := wholeWordTerms[kw.Term]; !ok {
		return strings.Contains(text, kw.Term)
	}
	for offset := 0; ; {
		i := strings.Index(text[offset:], kw.Term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(kw.Term)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		offset = start + 1
	}
}

// isWordByte reports whether b continues a Latin word. Bytes of multi-byte
// runes count as boundaries so that "coma" next to Chinese text still matches.
func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

func (c *EmergencyClassifier) advisory(category domain.EmergencyCategory, matched string) *domain.EmergencyAdvisory {
	actions := make([]string, len(immediateActions[category]))
	copy(actions, immediateActions[category])

	return &domain.EmergencyAdvisory{
		Category:         category,
		Advice:           fmt.Sprintf("Call the emergency number %s immediately and wait for professional medical help.", c.contacts.Ambulance),
		ImmediateActions: actions,
		EmergencyContact: c.contacts.Ambulance,
		MatchedKeyword:   matched,
	}
}
