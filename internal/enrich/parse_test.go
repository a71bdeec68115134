package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradient/internal/model"
)

func TestParseClassificationDerivesPriority(t *testing.T) {
	c := parseClassification(`{"sender_name":"Jane Doe","is_lead":true,"status_label":"new lead","tone":"friendly"}`)

	require.NotNil(t, c.SenderName)
	assert.Equal(t, "Jane Doe", *c.SenderName)
	assert.True(t, c.IsLead)
	assert.Equal(t, model.PriorityHigh, c.Priority)
	assert.Equal(t, "new lead", c.StatusLabel)
	assert.Equal(t, model.ToneFriendly, c.Tone)
}

func TestParseClassificationNonLeadIsNormalPriority(t *testing.T) {
	c := parseClassification(`{"is_lead":false,"status_label":"spam","tone":"simple"}`)

	assert.Equal(t, model.PriorityNormal, c.Priority)
}

func TestParseClassificationMalformedDegradesToDefaults(t *testing.T) {
	c := parseClassification("not json at all")

	assert.Nil(t, c.SenderName)
	assert.False(t, c.IsLead)
	assert.Equal(t, model.PriorityNormal, c.Priority)
	assert.Equal(t, model.StatusWaiting, c.StatusLabel)
	assert.Equal(t, model.ToneSimple, c.Tone)
}

func TestParseClassificationForcesToneIntoLegalSet(t *testing.T) {
	c := parseClassification(`{"tone":"enthusiastic"}`)
	assert.Equal(t, model.ToneSimple, c.Tone)

	c = parseClassification(`{"tone":" AGGRESSIVE "}`)
	assert.Equal(t, model.ToneAggressive, c.Tone)
}

func TestParseExtraction(t *testing.T) {
	e := parseExtraction(`{
        "email": "jane@acme.com",
        "full_name": "  Jane Doe  ",
        "company": "Acme",
        "amount": 1500.50,
        "phone_number": "+380501112233",
        "person_links": ["https://linkedin.com/in/jane"]
    }`)

	require.NotNil(t, e.FullName)
	assert.Equal(t, "Jane Doe", *e.FullName)
	require.NotNil(t, e.Amount)
	assert.InDelta(t, 1500.50, *e.Amount, 0.001)
	require.NotNil(t, e.Phone)
	assert.Equal(t, "+380501112233", *e.Phone)
	assert.Equal(t, []string{"https://linkedin.com/in/jane"}, e.PersonLinks)
}

func TestParseExtractionEmptyStringsBecomeNil(t *testing.T) {
	e := parseExtraction(`{"company":"   ","website":""}`)

	assert.Nil(t, e.Company)
	assert.Nil(t, e.Website)
}

func TestParseExtractionMalformedDegradesToZero(t *testing.T) {
	e := parseExtraction("{{{")

	assert.Nil(t, e.Email)
	assert.Nil(t, e.Company)
	assert.Nil(t, e.PersonLinks)
}

func TestDecodeLinksAcceptsSingleString(t *testing.T) {
	e := parseExtraction(`{"person_links":"https://github.com/jane"}`)
	assert.Equal(t, []string{"https://github.com/jane"}, e.PersonLinks)
}
