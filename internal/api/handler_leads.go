package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradient/internal/model"
	"gradient/internal/repository"
)

type LeadsHandler struct {
	messages *repository.MessageRepository
	logger   *zap.Logger
}

func NewLeadsHandler(messages *repository.MessageRepository, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{messages: messages, logger: logger}
}

type leadView struct {
	ID             string     `json:"id"`
	IngestedAt     time.Time  `json:"ingested_at"`
	PreprocessedAt *time.Time `json:"preprocessed_at"`
	AnalyzedAt     *time.Time `json:"analyzed_at"`
	ExportedAt     *time.Time `json:"exported_at"`

	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	ReceivedAt string `json:"received_at"`

	IsLead      bool   `json:"is_lead"`
	Priority    string `json:"priority"`
	StatusLabel string `json:"status_label"`
	Tone        string `json:"tone"`
	Qualified   bool   `json:"qualified"`

	FirstName        *string  `json:"first_name"`
	LastName         *string  `json:"last_name"`
	FullName         *string  `json:"full_name"`
	Company          *string  `json:"company"`
	CompanySummary   *string  `json:"company_summary"`
	Phone            *string  `json:"phone"`
	Website          *string  `json:"website"`
	PersonRole       *string  `json:"person_role"`
	PersonLocation   *string  `json:"person_location"`
	PersonExperience *string  `json:"person_experience"`
	PersonSummary    *string  `json:"person_summary"`
	PersonLinks      []string `json:"person_links"`

	CompanyInsights []model.InsightRecord `json:"company_insights"`
	PersonInsights  []model.InsightRecord `json:"person_insights"`
}

// GetLeads handles GET /leads
func (h *LeadsHandler) GetLeads(c *gin.Context) {
	msgs, err := h.messages.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leads"})
		return
	}

	leads := make([]leadView, 0, len(msgs))
	for i := range msgs {
		leads = append(leads, toLeadView(&msgs[i]))
	}

	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

func toLeadView(m *model.Message) leadView {
	return leadView{
		ID:             m.ID,
		IngestedAt:     m.IngestedAt,
		PreprocessedAt: m.PreprocessedAt,
		AnalyzedAt:     m.AnalyzedAt,
		ExportedAt:     m.ExportedAt,

		Subject:    m.Subject,
		Body:       m.Body,
		Sender:     m.Sender,
		Recipient:  m.Recipient,
		ReceivedAt: m.ReceivedAt,

		IsLead:      m.IsLead,
		Priority:    m.Priority,
		StatusLabel: m.StatusLabel,
		Tone:        m.Tone,
		Qualified:   m.Qualified(),

		FirstName:        m.FirstName,
		LastName:         m.LastName,
		FullName:         m.FullName,
		Company:          m.Company,
		CompanySummary:   m.CompanySummary,
		Phone:            m.Phone,
		Website:          m.Website,
		PersonRole:       m.PersonRole,
		PersonLocation:   m.PersonLocation,
		PersonExperience: m.PersonExperience,
		PersonSummary:    m.PersonSummary,
		PersonLinks:      m.PersonLinks,

		CompanyInsights: m.CompanyInsights,
		PersonInsights:  m.PersonInsights,
	}
}
