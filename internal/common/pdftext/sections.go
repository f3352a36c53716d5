package pdftext

import (
	"strings"
	"unicode/utf8"
)

// SectionKeywords are headings commonly found in Indian government tenders.
var SectionKeywords = []string{
	"eligibility criteria",
	"eligibility requirement",
	"technical qualification",
	"scope of work",
	"terms and conditions",
	"general conditions",
	"special conditions",
	"documents required",
	"document checklist",
	"bid submission",
	"evaluation criteria",
	"financial requirement",
	"pre-qualification",
	"technical specifications",
	"instructions to bidders",
}

const (
	maxSectionLen       = 3000
	eligibilityFallback = 4000
	documentsFallback   = 3000
	minSectionLen       = 100

	DefaultTruncateLen = 8000
	DefaultRelevantLen = 6000
	minRelevantLen     = 500

	truncationMarker = "\n\n[... document truncated for processing ...]"
)

var (
	eligibilityKeys = []string{"eligibility criteria", "eligibility requirement", "pre-qualification", "technical qualification", "financial requirement"}
	documentsKeys   = []string{"documents required", "document checklist", "bid submission"}
	relevantKeys    = []string{"eligibility criteria", "eligibility requirement", "pre-qualification", "financial requirement", "documents required", "scope of work"}
)

// ExtractSections maps each keyword found in the text to the slice that starts
// at its first occurrence and runs to the next keyword, at most 3000 bytes.
func ExtractSections(fullText string) map[string]string {
	sections := map[string]string{}
	lower := asciiLower(fullText)

	for _, keyword := range SectionKeywords {
		pos := strings.Index(lower, keyword)
		if pos == -1 {
			continue
		}

		end := len(fullText)
		for _, other := range SectionKeywords {
			if other == keyword {
				continue
			}
			if next := strings.Index(lower[pos+len(keyword):], other); next != -1 {
				if abs := pos + len(keyword) + next; abs < end {
					end = abs
				}
			}
		}
		if pos+maxSectionLen < end {
			end = pos + maxSectionLen
		}

		sections[keyword] = strings.TrimSpace(clip(fullText[pos:], end-pos))
	}
	return sections
}

// EligibilitySection returns the best eligibility text available, or the head of the document.
func EligibilitySection(sections map[string]string, fullText string) string {
	return firstSubstantial(sections, eligibilityKeys, fullText, eligibilityFallback)
}

// DocumentsSection returns the best documents-required text available, or the head of the document.
func DocumentsSection(sections map[string]string, fullText string) string {
	return firstSubstantial(sections, documentsKeys, fullText, documentsFallback)
}

func firstSubstantial(sections map[string]string, keys []string, fullText string, fallback int) string {
	for _, k := range keys {
		if s, ok := sections[k]; ok && len(s) > minSectionLen {
			return s
		}
	}
	return clip(fullText, fallback)
}

// Truncate cuts text to maxLen, preferring a line break in the last fifth,
// and marks the cut.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultTruncateLen
	}
	if len(text) <= maxLen {
		return text
	}

	truncated := clip(text, maxLen)
	if nl := strings.LastIndex(truncated, "\n"); float64(nl) > float64(maxLen)*0.8 {
		truncated = truncated[:nl]
	}
	return truncated + truncationMarker
}

// RelevantText builds the text sent for structure extraction: the eligibility,
// financial, documents and scope sections when they carry enough content,
// otherwise the raw document.
func RelevantText(sections map[string]string, fullText string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultRelevantLen
	}

	var b strings.Builder
	for _, k := range relevantKeys {
		if s, ok := sections[k]; ok {
			b.WriteString("\n\n=== ")
			b.WriteString(strings.ToUpper(k))
			b.WriteString(" ===\n")
			b.WriteString(s)
		}
	}

	if b.Len() > minRelevantLen {
		return clip(b.String(), maxLen)
	}
	return clip(fullText, maxLen)
}

// clip returns at most n bytes of s without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if n >= len(s) {
		return s
	}
	if n <= 0 {
		return ""
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// asciiLower lowercases ASCII letters only, so byte offsets match the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
