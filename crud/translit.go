package crud

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"inkwell/domain"
)

// cyrillicToLatin maps lowercase Cyrillic letters to their Latin phonetic
// approximation. Letters without a sound of their own (ь, ъ) map to nothing.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "yo", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "j", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ы': "y", 'э': "e", 'ю': "yu",
	'я': "ya", 'ь': "", 'ъ': "",
	// Ukrainian and Belarusian additions.
	'є': "e", 'і': "i", 'ї': "i", 'ґ': "g", 'ў': "u",
}

// foldDiacritics strips combining marks from Latin letters, turning é into e
// and ü into u, so that accented titles still produce pure-ASCII slugs.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// slugify derives a URL-safe token from a title: lowercase, transliterate
// Cyrillic, fold diacritics, collapse every other non-alphanumeric run into
// a single hyphen, and truncate to domain.SlugMaxLength. The result may be
// empty if the title contains nothing transliterable; the caller treats
// that as a validation failure.
func slugify(title string) string {
	lowered := strings.ToLower(title)

	var latin strings.Builder
	for _, r := range lowered {
		if repl, ok := cyrillicToLatin[r]; ok {
			latin.WriteString(repl)
		} else {
			latin.WriteRune(r)
		}
	}

	folded, _, err := transform.String(foldDiacritics, latin.String())
	if err != nil {
		folded = latin.String()
	}

	var slug strings.Builder
	pendingSep := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && slug.Len() > 0 {
				slug.WriteByte('-')
			}
			pendingSep = false
			slug.WriteRune(r)
		case r == '_':
			// Underscores are legal slug characters, keep them as-is.
			if pendingSep && slug.Len() > 0 {
				slug.WriteByte('-')
			}
			pendingSep = false
			slug.WriteByte('_')
		default:
			pendingSep = true
		}
	}

	s := slug.String()
	if len(s) > domain.SlugMaxLength {
		s = s[:domain.SlugMaxLength]
		s = strings.TrimRight(s, "-")
	}
	return s
}
