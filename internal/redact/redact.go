// Package redact scrubs credentials and participant identifiers from text
// before it is sent to a model.
package redact

import (
	"math"
	"regexp"
	"strings"
)

const (
	Redacted    = "[REDACTED_SECRET]"
	RedactedPII = "[REDACTED_PII]"
)

var (
	privateKey   = regexp.MustCompile(`-----BEGIN (RSA|EC|DSA|OPENSSH) PRIVATE KEY-----[\s\S]+?-----END (RSA|EC|DSA|OPENSSH) PRIVATE KEY-----`)
	awsAccessKey = regexp.MustCompile(`AKIA[0-9A-Z]{16}`)
	openAIKey    = regexp.MustCompile(`sk-[A-Za-z0-9_\-]{20,}`)
	jwtToken     = regexp.MustCompile(`eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)
	genericToken = regexp.MustCompile(`(?i)(token|secret|api[_-]?key|access[_-]?key|password)["'\s:=]+[A-Za-z0-9/+=_\-]{12,}`)
	base64Like   = regexp.MustCompile(`[A-Za-z0-9+/=]{32,}`)
	hexLike      = regexp.MustCompile(`[A-Fa-f0-9]{32,}`)

	email       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	usSSN       = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	phone       = regexp.MustCompile(`(?:\+?\d{1,3}[ .\-]?)?\(?\d{3}\)?[ .\-]\d{3}[ .\-]\d{4}\b`)
	medicalRecs = regexp.MustCompile(`(?i)\b(MRN|medical record (number|no\.?)|patient id)[\s:#]*[A-Z0-9\-]{4,}`)
)

func Redact(input string) string {
	if input == "" {
		return input
	}
	output := input
	output = privateKey.ReplaceAllString(output, Redacted)
	output = awsAccessKey.ReplaceAllString(output, Redacted)
	output = openAIKey.ReplaceAllString(output, Redacted)
	output = jwtToken.ReplaceAllString(output, Redacted)
	output = genericToken.ReplaceAllString(output, Redacted)
	output = redactHighEntropy(output)

	output = medicalRecs.ReplaceAllString(output, RedactedPII)
	output = email.ReplaceAllString(output, RedactedPII)
	output = usSSN.ReplaceAllString(output, RedactedPII)
	output = phone.ReplaceAllString(output, RedactedPII)
	return output
}

func redactHighEntropy(input string) string {
	output := replaceIfHighEntropy(input, base64Like)
	return replaceIfHighEntropy(output, hexLike)
}

func replaceIfHighEntropy(input string, re *regexp.Regexp) string {
	return re.ReplaceAllStringFunc(input, func(match string) string {
		if entropy(match) >= 4.0 {
			return Redacted
		}
		return match
	})
}

// entropy is the Shannon entropy of s in bits per rune.
func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	length := float64(len([]rune(s)))
	var ent float64
	for _, count := range counts {
		p := float64(count) / length
		ent -= p * math.Log2(p)
	}
	return ent
}

func RedactOptional(input string, enabled bool) string {
	if !enabled {
		return input
	}
	return strings.ReplaceAll(Redact(input), "\u0000", "")
}

// RedactFeedback returns a redacted copy; the input map is not modified.
func RedactFeedback(feedback map[string]string, enabled bool) map[string]string {
	out := make(map[string]string, len(feedback))
	for role, text := range feedback {
		out[role] = RedactOptional(text, enabled)
	}
	return out
}
