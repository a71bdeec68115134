package reply

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"gradient/internal/ai"
)

// Styles are the two formality registers a reply can be drafted in.
var Styles = []string{"formal", "semi_formal"}

// Variants are the reply types, matching the persisted prompt templates.
var Variants = []string{"quick", "follow_up", "recap"}

// DefaultPrompts seed the prompt table on first startup.
var DefaultPrompts = map[string]string{
	"quick":     "Write a short reply to [NAME] acknowledging their email about [SUBJECT] and promising a detailed answer soon.",
	"follow_up": "Follow up with [NAME] about [TOPIC_DISCUSSED], reference the key points of their email and suggest a concrete next step.",
	"recap":     "Recap the key points of the conversation with [NAME] regarding [TOPIC_DISCUSSED] and confirm the agreed follow-up.",
}

// PromptStore loads the persisted prompt templates on every drafting call.
type PromptStore interface {
	GetReplyPrompts(ctx context.Context) (map[string]string, error)
}

// Options tweak a single drafting call.
type Options struct {
	// Placeholders take priority over keys derived from lead/email data.
	Placeholders map[string]interface{}
	// PromptOverrides replace stored templates for variants present in both.
	PromptOverrides map[string]string
	// Tone is the stage-1 tone of the inbound email. When set, each variant
	// is drafted in every style (6 keys, "<variant>_<style>"); when empty
	// only the 3 plain variant keys are drafted.
	Tone string
}

// Drafter renders prompt templates and generates the reply variants.
type Drafter struct {
	ai      ai.Completer
	prompts PromptStore
	logger  *zap.Logger
}

func NewDrafter(completer ai.Completer, prompts PromptStore, logger *zap.Logger) *Drafter {
	return &Drafter{
		ai:      completer,
		prompts: prompts,
		logger:  logger,
	}
}

// VariantKeys lists the keys a drafting call with the given tone returns.
func VariantKeys(tone string) []string {
	if tone == "" {
		return append([]string{}, Variants...)
	}
	keys := make([]string, 0, len(Variants)*len(Styles))
	for _, v := range Variants {
		for _, s := range Styles {
			keys = append(keys, v+"_"+s)
		}
	}
	return keys
}

const replySystemPrompt = "You are an experienced sales development representative drafting concise email replies. " +
	"Always respond in English. Limit the reply to 140 words. Use only factual information provided in the context. " +
	"Do not invent names, dates, or commitments beyond what the context states."

// Draft generates every expected variant. The returned map always covers
// the full key set for the requested tone; a variant whose template is
// empty or whose generation failed maps to "".
func (d *Drafter) Draft(ctx context.Context, lead, email map[string]interface{}, opts Options) (map[string]string, error) {
	templates, err := d.prompts.GetReplyPrompts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reply prompts: %w", err)
	}

	for variant, override := range opts.PromptOverrides {
		if _, known := templates[variant]; known && strings.TrimSpace(override) != "" {
			templates[variant] = override
		}
	}

	placeholderMap := BuildMapping(lead, email, opts.Placeholders)
	contextBlock := composeContext(lead, email, opts.Placeholders)

	keys := VariantKeys(opts.Tone)
	replies := make(map[string]string, len(keys))
	for _, key := range keys {
		replies[key] = ""
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, key := range keys {
		variant, style := splitKey(key)
		rendered := Render(templates[variant], placeholderMap)
		if rendered == "" {
			continue
		}

		wg.Add(1)
		go func(key, rendered, style string) {
			defer wg.Done()

			text := d.generate(ctx, rendered, contextBlock, opts.Tone, style)

			mu.Lock()
			replies[key] = text
			mu.Unlock()
		}(key, rendered, style)
	}

	wg.Wait()
	return replies, nil
}

// generate makes one completion call. Failures degrade to an empty string
// so a single bad call never fails the batch.
func (d *Drafter) generate(ctx context.Context, blueprint, contextBlock, tone, style string) string {
	instruction := "Follow this reply blueprint and fill placeholders with the factual details from the context."
	if tone != "" && style != "" {
		instruction = fmt.Sprintf(
			"Write the reply in a %s register. The sender's email reads as %s; match your approach accordingly. "+
				"Follow this reply blueprint and fill placeholders with the factual details from the context.",
			strings.ReplaceAll(style, "_", "-"), tone,
		)
	}

	user := fmt.Sprintf(
		"%s\n\nReply blueprint:\n%s\n\nContext with factual data:\n%s\n\n"+
			"Output only the email body, without subject lines, notes, or extra commentary.",
		instruction, blueprint, orEmptyMarker(contextBlock),
	)

	text, err := d.ai.Complete(ctx, ai.Request{
		Operation: "reply",
		System:    replySystemPrompt,
		User:      user,
	})
	if err != nil {
		d.logger.Warn("reply generation failed", zap.String("style", style), zap.Error(err))
		return ""
	}

	return EnforceWordLimit(text, MaxReplyWords)
}

func splitKey(key string) (variant, style string) {
	// "_semi_formal" also ends in "_formal", so the longest matching
	// style suffix wins.
	longest := ""
	for _, s := range Styles {
		if strings.HasSuffix(key, "_"+s) && len(s) > len(longest) {
			longest = s
		}
	}
	if longest == "" {
		return key, ""
	}
	return strings.TrimSuffix(key, "_"+longest), longest
}

func composeContext(lead, email, placeholders map[string]interface{}) string {
	sections := []string{
		"EMAIL CONTEXT:\n" + prettyJSON(email),
		"LEAD DATA:\n" + prettyJSON(lead),
	}
	if len(placeholders) > 0 {
		sections = append(sections, "ADDITIONAL PLACEHOLDERS:\n"+prettyJSON(placeholders))
	}
	return strings.Join(sections, "\n\n")
}

func prettyJSON(data map[string]interface{}) string {
	if len(data) == 0 {
		return "{}"
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func orEmptyMarker(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s
}
