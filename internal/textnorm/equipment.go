package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"batchline/pkg/contracts/domain"
)

// Acronyms are always written in upper case, wherever they appear.
var Acronyms = map[string]bool{
	"uv": true,
}

// SharedPrefix marks equipment shared across lines: the numeric suffix is
// never part of its group name.
const SharedPrefix = "reclamo"

// NumberedEquipment lists equipment types whose trailing number identifies a
// distinct unit and therefore stays in the group name.
var NumberedEquipment = []string{
	"filtro",
	"tanque",
	"reactor",
	"mezclador",
	"marmita",
	"llenadora",
	"envasadora",
	"secador",
	"molino",
	"bomba",
	"pasteurizador",
	"centrifuga",
	"autoclave",
	"caldera",
	"linea",
}

// base name, then an optional trailing integer
var suffixPattern = regexp.MustCompile(`^(.*?)\s*(\d+)?$`)

// CanonicalizeEquipmentGroup maps raw equipment text to its group name.
// Empty input yields domain.UnassignedEquipment.
func CanonicalizeEquipmentGroup(raw string) string {
	s := Normalize(raw)
	if s == "" {
		return domain.UnassignedEquipment
	}

	base, suffix := s, ""
	if m := suffixPattern.FindStringSubmatch(s); m != nil {
		base, suffix = strings.TrimSpace(m[1]), m[2]
	}
	if base == "" {
		// the whole name is a number
		base, suffix = s, ""
	}

	title := TitleCase(base)
	if strings.HasPrefix(base, SharedPrefix) {
		return title
	}
	if suffix != "" && hasNumberedPrefix(base) {
		n, err := strconv.Atoi(suffix)
		if err != nil {
			return title
		}
		return title + " " + strconv.Itoa(n)
	}
	return title
}

func hasNumberedPrefix(base string) bool {
	for _, p := range NumberedEquipment {
		if strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}

// TitleCase upper-cases the first letter of each space separated word and
// lower-cases the rest. Words listed in Acronyms are upper-cased entirely.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lw := strings.ToLower(w)
		if Acronyms[lw] {
			words[i] = strings.ToUpper(lw)
			continue
		}
		r, size := utf8.DecodeRuneInString(lw)
		words[i] = string(unicode.ToUpper(r)) + lw[size:]
	}
	return strings.Join(words, " ")
}
