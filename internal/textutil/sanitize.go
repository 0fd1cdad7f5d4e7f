package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// slugMaxLength caps derived filenames so titles can't produce unwieldy names.
const slugMaxLength = 50

// Slug converts a display title into a lowercase filename stem. Letters and
// digits are kept, every other run of characters collapses to a single
// hyphen, and the result is truncated to 50 characters. Returns "" when the
// title yields no usable characters.
func Slug(title string) string {
	title = strings.TrimSpace(strings.ToLower(title))
	if title == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range title {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > slugMaxLength {
		out = strings.TrimRight(out[:slugMaxLength], "-")
	}
	return out
}

var titleCaser = cases.Title(language.English)

// TitleLabel turns a slug back into a human-readable label, e.g.
// "morning-meditation" becomes "Morning Meditation".
func TitleLabel(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}
