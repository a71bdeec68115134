package reply

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "LEAD_FULL_NAME", NormalizeKey("lead full-name"))
	assert.Equal(t, "NAME", NormalizeKey("[name]"))
	assert.Equal(t, "CLIENT_NAME", NormalizeKey("Client Name"))
	assert.Equal(t, "ORDER_1_SKU", NormalizeKey("order.1.sku"))
	assert.Equal(t, "", NormalizeKey("---"))
}

func TestBuildMappingAliases(t *testing.T) {
	lead := map[string]interface{}{
		"full_name": "Jane Doe",
		"company":   "Acme",
	}
	email := map[string]interface{}{
		"subject": "Pricing question",
	}

	m := BuildMapping(lead, email, nil)

	assert.Equal(t, "Jane Doe", m["NAME"])
	assert.Equal(t, "Jane Doe", m["CLIENT_NAME"])
	assert.Equal(t, "Pricing question", m["SUBJECT"])
	assert.Equal(t, "Pricing question", m["TOPIC_DISCUSSED"])
	assert.Equal(t, "Acme", m["LEAD_COMPANY"])
	assert.Equal(t, "Pricing question", m["EMAIL_SUBJECT"])
}

func TestBuildMappingNameFromParts(t *testing.T) {
	lead := map[string]interface{}{
		"first_name": "Jane",
		"last_name":  "Doe",
	}

	m := BuildMapping(lead, nil, nil)

	assert.Equal(t, "Jane Doe", m["NAME"])
}

func TestBuildMappingExplicitOverridesWin(t *testing.T) {
	lead := map[string]interface{}{"full_name": "Jane Doe"}
	overrides := map[string]interface{}{"name": "Custom Name"}

	m := BuildMapping(lead, nil, overrides)

	// first registered wins; explicit placeholders register first
	assert.Equal(t, "Custom Name", m["NAME"])
}

func TestBuildMappingNestedAndLists(t *testing.T) {
	lead := map[string]interface{}{
		"contact": map[string]interface{}{
			"phone": "+380501112233",
		},
		"tags": []interface{}{"vip", "urgent"},
		"orders": []interface{}{
			map[string]interface{}{"sku": "A-1"},
			map[string]interface{}{"sku": "B-2"},
		},
	}

	m := BuildMapping(lead, nil, nil)

	assert.Equal(t, "+380501112233", m["LEAD_CONTACT_PHONE"])
	assert.Equal(t, "vip, urgent", m["LEAD_TAGS"])
	assert.Equal(t, "A-1", m["LEAD_ORDERS_1_SKU"])
	assert.Equal(t, "B-2", m["LEAD_ORDERS_2_SKU"])
}

func TestRenderRoundTrip(t *testing.T) {
	m := map[string]string{"NAME": "Jane"}
	assert.Equal(t, "Hi Jane!", Render("Hi [NAME]!", m))
}

func TestRenderNormalizesTokens(t *testing.T) {
	m := map[string]string{"CLIENT_NAME": "Jane"}
	assert.Equal(t, "Hi Jane!", Render("Hi [client name]!", m))
}

func TestRenderUnmatchedTokenStaysVerbatim(t *testing.T) {
	out := Render("Hello [FOO_BAR], welcome.", map[string]string{"NAME": "Jane"})
	assert.Equal(t, "Hello [FOO_BAR], welcome.", out)
}

func TestRenderEmptyTemplate(t *testing.T) {
	assert.Equal(t, "", Render("", map[string]string{"NAME": "Jane"}))
}

func TestEnforceWordLimitUnderLimit(t *testing.T) {
	text := "short reply that fits"
	assert.Equal(t, text, EnforceWordLimit(text, MaxReplyWords))
}

func TestEnforceWordLimitExactBoundary(t *testing.T) {
	words := make([]string, MaxReplyWords)
	for i := range words {
		words[i] = "w"
	}
	text := strings.Join(words, " ")

	assert.Equal(t, text, EnforceWordLimit(text, MaxReplyWords))
}

func TestEnforceWordLimitTruncatesWithEllipsis(t *testing.T) {
	words := make([]string, MaxReplyWords+1)
	for i := range words {
		words[i] = "w"
	}
	out := EnforceWordLimit(strings.Join(words, " "), MaxReplyWords)

	got := strings.Fields(out)
	require.Len(t, got, MaxReplyWords)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestEnforceWordLimitKeepsTerminalPunctuation(t *testing.T) {
	words := make([]string, MaxReplyWords+5)
	for i := range words {
		words[i] = "w"
	}
	words[MaxReplyWords-1] = "done."
	out := EnforceWordLimit(strings.Join(words, " "), MaxReplyWords)

	assert.True(t, strings.HasSuffix(out, "done."))
	assert.False(t, strings.HasSuffix(out, "..."))
}
