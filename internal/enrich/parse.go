package enrich

import (
	"encoding/json"
	"strings"

	"gradient/internal/model"
)

// rawClassification mirrors the JSON object stage 1 asks the model for.
type rawClassification struct {
	SenderName  *string `json:"sender_name"`
	IsLead      bool    `json:"is_lead"`
	StatusLabel string  `json:"status_label"`
	Tone        string  `json:"tone"`
}

// parseClassification is the parse-or-default boundary for stage 1.
// Malformed JSON degrades to the zero classification; priority and tone are
// always forced into their legal value sets.
func parseClassification(raw string) model.Classification {
	var rc rawClassification
	_ = json.Unmarshal([]byte(raw), &rc)

	priority := model.PriorityNormal
	if rc.IsLead {
		priority = model.PriorityHigh
	}

	tone := strings.ToLower(strings.TrimSpace(rc.Tone))
	switch tone {
	case model.ToneAggressive, model.ToneSimple, model.ToneFriendly:
	default:
		tone = model.ToneSimple
	}

	label := strings.TrimSpace(rc.StatusLabel)
	if label == "" {
		label = model.StatusWaiting
	}

	return model.Classification{
		SenderName:  trimPtr(rc.SenderName),
		IsLead:      rc.IsLead,
		Priority:    priority,
		StatusLabel: label,
		Tone:        tone,
	}
}

// rawExtraction mirrors the JSON object stage 2 asks the model for.
// person_links arrives as either a string or a list, so it stays raw until
// decodeLinks.
type rawExtraction struct {
	Email            *string         `json:"email"`
	FirstName        *string         `json:"first_name"`
	LastName         *string         `json:"last_name"`
	FullName         *string         `json:"full_name"`
	Company          *string         `json:"company"`
	CompanySummary   *string         `json:"company_summary"`
	OrderNumber      *string         `json:"order_number"`
	OrderDescription *string         `json:"order_description"`
	Amount           *float64        `json:"amount"`
	Currency         *string         `json:"currency"`
	Phone            *string         `json:"phone_number"`
	Website          *string         `json:"website"`
	PersonRole       *string         `json:"person_role"`
	PersonLocation   *string         `json:"person_location"`
	PersonExperience *string         `json:"person_experience"`
	PersonSummary    *string         `json:"person_summary"`
	PersonLinks      json.RawMessage `json:"person_links"`
}

// parseExtraction is the parse-or-default boundary for stage 2: malformed
// JSON becomes the zero extraction, never an error.
func parseExtraction(raw string) model.Extraction {
	var re rawExtraction
	_ = json.Unmarshal([]byte(raw), &re)

	return model.Extraction{
		Email:            trimPtr(re.Email),
		FirstName:        trimPtr(re.FirstName),
		LastName:         trimPtr(re.LastName),
		FullName:         trimPtr(re.FullName),
		Company:          trimPtr(re.Company),
		CompanySummary:   trimPtr(re.CompanySummary),
		OrderNumber:      trimPtr(re.OrderNumber),
		OrderDescription: trimPtr(re.OrderDescription),
		Amount:           re.Amount,
		Currency:         trimPtr(re.Currency),
		Phone:            trimPtr(re.Phone),
		Website:          trimPtr(re.Website),
		PersonRole:       trimPtr(re.PersonRole),
		PersonLocation:   trimPtr(re.PersonLocation),
		PersonExperience: trimPtr(re.PersonExperience),
		PersonSummary:    trimPtr(re.PersonSummary),
		PersonLinks:      decodeLinks(re.PersonLinks),
	}
}

func decodeLinks(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// trimPtr trims the value and collapses empty strings to nil, keeping
// "field absent" and "field empty" the same thing downstream.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
