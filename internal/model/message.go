package model

import "time"

// Priority values written by the classification stage.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// Tone values written by the classification stage.
const (
	ToneAggressive = "aggressive"
	ToneSimple     = "simple"
	ToneFriendly   = "friendly"
)

// StatusWaiting is the label every message starts with before stage 1 runs.
const StatusWaiting = "waiting"

// InsightRecord is one external lookup result attached to a message.
type InsightRecord struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Message is one inbound mail item. The provider-assigned ID is the primary
// key and never changes. Stage completion is tracked with nullable
// timestamps: a stage has run iff its timestamp is non-nil. PreprocessedAt
// and AnalyzedAt go from nil to a value exactly once and are never reset;
// ExportedAt is only set after both of them.
type Message struct {
	ID string

	IngestedAt     time.Time
	PreprocessedAt *time.Time
	AnalyzedAt     *time.Time
	ExportedAt     *time.Time

	// Content as pulled from the mail source. ReceivedAt is kept as the
	// opaque string the source supplied.
	Subject    string
	Body       string
	Sender     string
	Recipient  string
	ReceivedAt string

	// Classification fields, written by stage 1.
	IsLead      bool
	Priority    string
	StatusLabel string
	Tone        string

	// Extraction fields, written by stage 2. Nil means the extraction did
	// not produce a value for that field.
	FirstName        *string
	LastName         *string
	FullName         *string
	Company          *string
	CompanySummary   *string
	Phone            *string
	Website          *string
	PersonRole       *string
	PersonLocation   *string
	PersonExperience *string
	PersonSummary    *string
	PersonLinks      []string

	CompanyInsights []InsightRecord
	PersonInsights  []InsightRecord
}

// Qualified reports whether the message counts as a qualified lead: at least
// one of phone, website, or company is populated.
func (m *Message) Qualified() bool {
	return nonEmpty(m.Phone) || nonEmpty(m.Website) || nonEmpty(m.Company)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// Classification is the stage-1 result applied to a message row.
type Classification struct {
	SenderName  *string
	IsLead      bool
	Priority    string
	StatusLabel string
	Tone        string
}

// Extraction is the stage-2 result applied to a message row.
type Extraction struct {
	Email            *string
	FirstName        *string
	LastName         *string
	FullName         *string
	Company          *string
	CompanySummary   *string
	OrderNumber      *string
	OrderDescription *string
	Amount           *float64
	Currency         *string
	Phone            *string
	Website          *string
	PersonRole       *string
	PersonLocation   *string
	PersonExperience *string
	PersonSummary    *string
	PersonLinks      []string

	CompanyInsights []InsightRecord
	PersonInsights  []InsightRecord
}
