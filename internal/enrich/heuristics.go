package enrich

import (
	"regexp"
	"strings"
)

// personalDomains never yield a company candidate.
var personalDomains = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"live.com":       {},
	"icloud.com":     {},
	"proton.me":      {},
	"protonmail.com": {},
	"ukr.net":        {},
	"i.ua":           {},
}

// infrastructure subdomain labels that carry no brand signal
var skipLabels = map[string]struct{}{
	"mail": {},
	"smtp": {},
	"api":  {},
	"app":  {},
	"www":  {},
}

var (
	urlRe   = regexp.MustCompile(`(?i)https?://[^\s)\]>"']+`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
)

// CompanyCandidate derives a best-effort company name from the sender
// address domain, e.g. hr@nova-poshta.ua -> "Nova Poshta". Personal mail
// providers yield no candidate. Empty string means no candidate.
func CompanyCandidate(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 {
		return ""
	}

	domain := strings.ToLower(strings.TrimSpace(sender[at+1:]))
	if domain == "" {
		return ""
	}
	if _, personal := personalDomains[domain]; personal {
		return ""
	}

	parts := []string{}
	for _, p := range strings.Split(domain, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return ""
	}

	sld := parts[len(parts)-2]
	if _, skip := skipLabels[sld]; skip || sld == "" {
		return ""
	}

	words := strings.Fields(strings.ReplaceAll(sld, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// WebsiteCandidate returns the first URL found in the body, or "".
func WebsiteCandidate(body string) string {
	return urlRe.FindString(body)
}

// PhoneCandidate returns the first phone-looking token in the body, or "".
func PhoneCandidate(body string) string {
	match := phoneRe.FindString(body)
	if match == "" {
		return ""
	}
	// require enough digits to plausibly be a phone number
	digits := 0
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 8 {
		return ""
	}
	return strings.TrimSpace(match)
}

// NormalizeWebsite prefixes a scheme when missing, e.g. "thegradient.com"
// -> "https://thegradient.com". Empty input stays empty.
func NormalizeWebsite(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}
