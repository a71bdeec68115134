package reply

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	placeholderKeyRe   = regexp.MustCompile(`[^A-Z0-9]+`)
	placeholderTokenRe = regexp.MustCompile(`\[([^\[\]]+)\]`)
)

// NormalizeKey converts any key into the UPPER_SNAKE form templates use:
// "lead full-name" -> "LEAD_FULL_NAME".
func NormalizeKey(key string) string {
	upper := strings.ToUpper(key)
	return strings.Trim(placeholderKeyRe.ReplaceAllString(upper, "_"), "_")
}

// mapping collects placeholder values with first-registered-wins semantics:
// a key set earlier is never overwritten by a later, lower-priority source.
type mapping map[string]string

func (m mapping) register(key string, value interface{}) {
	if value == nil {
		return
	}
	norm := NormalizeKey(key)
	if norm == "" {
		return
	}
	text := strings.TrimSpace(stringify(value))
	if text == "" {
		return
	}
	if _, exists := m[norm]; exists {
		return
	}
	m[norm] = text
}

// BuildMapping flattens the lead record, the email record and the explicit
// extra placeholders into one flat placeholder map. Explicit placeholders
// register first and therefore take priority; convenience aliases
// (NAME/CLIENT_NAME, SUBJECT/TOPIC_DISCUSSED) are synthesized last.
func BuildMapping(lead, email, placeholders map[string]interface{}) map[string]string {
	m := mapping{}

	for key, value := range placeholders {
		m.register(key, value)
	}
	// Scalars register under their prefixed key; maps and lists go through
	// flatten so lists come out comma-joined instead of fmt.Sprint noise.
	for key, value := range email {
		if isScalar(value) {
			m.register("email_"+key, value)
		}
	}
	for key, value := range lead {
		if isScalar(value) {
			m.register("lead_"+key, value)
		}
	}
	for key, value := range flatten("lead", lead) {
		m.register(key, value)
	}
	for key, value := range flatten("email", email) {
		m.register(key, value)
	}

	fullName := stringify(lead["full_name"])
	if fullName == "" {
		fullName = strings.TrimSpace(stringify(lead["first_name"]) + " " + stringify(lead["last_name"]))
	}
	if fullName != "" {
		m.register("name", fullName)
		m.register("client_name", fullName)
	}

	if subject := stringify(email["subject"]); subject != "" {
		m.register("subject", subject)
		m.register("topic_discussed", subject)
	}

	return m
}

// flatten walks nested maps and lists, producing prefix_sub_key entries.
// Lists of scalars collapse to a comma-joined value; lists of maps get a
// 1-based index segment.
func flatten(prefix string, value interface{}) map[string]string {
	items := map[string]string{}
	if value == nil {
		return items
	}

	switch v := value.(type) {
	case map[string]interface{}:
		for subKey, subVal := range v {
			combined := subKey
			if prefix != "" {
				combined = prefix + "_" + subKey
			}
			for k, fv := range flatten(combined, subVal) {
				items[k] = fv
			}
		}
	case []interface{}:
		if allMaps(v) {
			for idx, item := range v {
				combined := fmt.Sprintf("%s_%d", prefix, idx+1)
				for k, fv := range flatten(combined, item) {
					items[k] = fv
				}
			}
		} else {
			parts := []string{}
			for _, item := range v {
				if s := strings.TrimSpace(stringify(item)); s != "" {
					parts = append(parts, s)
				}
			}
			items[prefix] = strings.Join(parts, ", ")
		}
	default:
		if prefix != "" {
			items[prefix] = stringify(v)
		}
	}

	return items
}

func isScalar(value interface{}) bool {
	switch value.(type) {
	case map[string]interface{}, []interface{}:
		return false
	default:
		return true
	}
}

func allMaps(list []interface{}) bool {
	if len(list) == 0 {
		return false
	}
	for _, item := range list {
		if _, ok := item.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

func stringify(value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Render replaces every [PLACEHOLDER] token whose normalized form has a
// mapping entry. Unmatched tokens stay verbatim; rendering never fails.
func Render(template string, m map[string]string) string {
	if template == "" {
		return ""
	}

	out := placeholderTokenRe.ReplaceAllStringFunc(template, func(token string) string {
		rawKey := token[1 : len(token)-1]
		if replacement, ok := m[NormalizeKey(rawKey)]; ok {
			return replacement
		}
		return token
	})
	return strings.TrimSpace(out)
}

// MaxReplyWords is the hard ceiling for one generated reply.
const MaxReplyWords = 140

var wordRe = regexp.MustCompile(`\S+`)

// EnforceWordLimit truncates text to max whitespace-delimited words. The
// truncated text gets an ellipsis unless its last word already ends in
// terminal punctuation.
func EnforceWordLimit(text string, max int) string {
	words := wordRe.FindAllString(text, -1)
	if len(words) <= max {
		return strings.TrimSpace(text)
	}

	trimmed := strings.TrimSpace(strings.Join(words[:max], " "))
	if !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "!") && !strings.HasSuffix(trimmed, "?") {
		trimmed += "..."
	}
	return trimmed
}
