package handlers

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"kasetinfo/internal/models"
)

// Validation limits for item fields.
const (
	maxTitleLen   = 300
	maxSummaryLen = 1_000
	maxContentLen = 100_000
	maxURLLen     = 2_048
	maxTags       = 20
	maxTagLen     = 50
)

// validateNewItem checks a create request and returns the first problem
// found, or "" when the item can be stored.
func validateNewItem(n models.NewItem) string {
	if msg := validateText(n.Title, n.Summary, n.Content); msg != "" {
		return msg
	}
	if !n.DisplayCategory.Valid() {
		return "หมวดหมู่ไม่ถูกต้อง"
	}
	if msg := validateURL(n.ImageURL, "ลิงก์รูปภาพ"); msg != "" {
		return msg
	}
	if msg := validateURL(n.SourceURL, "ลิงก์แหล่งที่มา"); msg != "" {
		return msg
	}
	return validateTags(n.Tags)
}

// validatePatch checks an edit request.
func validatePatch(p models.ItemPatch) string {
	if msg := validateText(p.Title, p.Summary, p.Content); msg != "" {
		return msg
	}
	if msg := validateURL(p.ImageURL, "ลิงก์รูปภาพ"); msg != "" {
		return msg
	}
	return validateTags(p.Tags)
}

func validateText(title, summary, content string) string {
	switch {
	case strings.TrimSpace(title) == "":
		return "กรุณากรอกหัวข้อ"
	case utf8.RuneCountInString(title) > maxTitleLen:
		return "หัวข้อยาวเกินไป (ไม่เกิน 300 ตัวอักษร)"
	case strings.TrimSpace(summary) == "":
		return "กรุณากรอกคำอธิบายย่อ"
	case utf8.RuneCountInString(summary) > maxSummaryLen:
		return "คำอธิบายย่อยาวเกินไป (ไม่เกิน 1,000 ตัวอักษร)"
	case strings.TrimSpace(content) == "":
		return "กรุณากรอกเนื้อหา"
	case utf8.RuneCountInString(content) > maxContentLen:
		return "เนื้อหายาวเกินไป (ไม่เกิน 100,000 ตัวอักษร)"
	}
	return ""
}

// validateURL accepts an empty value or an absolute http(s) URL.
func validateURL(raw, label string) string {
	if raw == "" {
		return ""
	}
	if len(raw) > maxURLLen {
		return label + "ยาวเกินไป"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return label + "ไม่ถูกต้อง"
	}
	return ""
}

func validateTags(tags []string) string {
	if len(tags) > maxTags {
		return "แท็กมากเกินไป (ไม่เกิน 20 แท็ก)"
	}
	for _, t := range tags {
		if t == models.AllTags {
			return "ไม่สามารถใช้แท็ก " + models.AllTags + " ได้"
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return "แท็กยาวเกินไป (ไม่เกิน 50 ตัวอักษร)"
		}
	}
	return ""
}

// cleanTags trims tags and drops empty ones, keeping order and case.
// Duplicates within one item are removed; the first occurrence wins.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
