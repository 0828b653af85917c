// Package weapons validates user-submitted weapon codes against the
// active event. Codes arrive as free text or decoded QR payloads, often
// typed on phone keyboards that silently substitute Cyrillic look-alikes,
// so everything funnels through one normalization routine first.
package weapons

import (
	"fmt"
	"regexp"
	"strings"

	"cultgo/backend/internal/config"
)

// invisRe matches zero-width characters and the BOM.
var invisRe = regexp.MustCompile("[\u200B-\u200D\uFEFF]")

// codeRe is the accepted shape of a normalized weapon code.
var codeRe = regexp.MustCompile(fmt.Sprintf(`^[A-Z0-9\-]{%d,%d}$`,
	config.MinWeaponIDLength, config.MaxWeaponIDLength))

// confusables maps visually-confusable Cyrillic capitals to their Latin
// look-alikes. The set is exact: a code typed with a Cyrillic "Т" must
// resolve to the same identifier as its Latin twin.
var confusables = map[rune]rune{
	'А': 'A', 'В': 'B', 'С': 'C', 'Е': 'E', 'Н': 'H', 'К': 'K',
	'М': 'M', 'О': 'O', 'Р': 'P', 'Т': 'T', 'Х': 'X', 'У': 'Y',
	'Ё': 'E', 'Й': 'I', 'І': 'I', 'Ї': 'I',
}

// Normalize canonicalizes a raw weapon code: NBSP to space, zero-width
// characters stripped, trimmed, upper-cased, internal whitespace removed
// (hyphens stay), Cyrillic look-alikes folded to Latin. Idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, " ", " ")
	text = invisRe.ReplaceAllString(text, "")
	text = strings.ToUpper(strings.TrimSpace(text))
	text = strings.Join(strings.Fields(text), "")
	return strings.Map(func(r rune) rune {
		if latin, ok := confusables[r]; ok {
			return latin
		}
		return r
	}, text)
}

// ExtractCode pulls the code out of a raw message, tolerating a
// "weapon:"-style prefix in any alphabet, and normalizes it. The second
// return is false when no usable code remains.
func ExtractCode(raw string) (string, bool) {
	text := Normalize(raw)
	if i := strings.LastIndex(text, ":"); i >= 0 {
		text = text[i+1:]
	}
	if len(text) < config.MinWeaponIDLength {
		return "", false
	}
	return text, true
}

// IsValidCode reports whether a normalized code has the accepted shape.
func IsValidCode(code string) bool {
	return codeRe.MatchString(code)
}
