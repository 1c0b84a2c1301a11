package extract

import (
	"regexp"
	"strings"
)

// Generic label:value extraction for the fiscal attributes receipts
// carry besides the main fields (fiscal drive numbers, shift/cashier
// lines, tax-system markers). Structurally matched pairs are kept only
// when the label is on the allow list and not on the deny list, and
// the value does not look like prose torn out of a sentence.

var kvPatterns = []*regexp.Regexp{
	// short fiscal abbreviations with numeric values
	regexp.MustCompile(`(?i)((?:ФН|ФД|ФПД|РН ККТ|БИК|КПП))[:\s№]+(\d+)`),
	// receipt header with its number
	regexp.MustCompile(`(?i)(Кассовый\s+чек)\s+№\s*(\d+)`),
	// free-form labelled lines
	regexp.MustCompile(`(?i)((?:СМЕНА|ЧЕК|КАССИР|АДРЕС|МЕСТО|САЙТ|СНО))[:\s№]+([^\n]{3,60}?)(?:\n|$)`),
}

// allow list: labels worth keeping
var kvAllowKeys = []string{
	"ФН", "ФД", "ФПД", "РН ККТ", "СМЕНА", "ЧЕК", "КАССИР",
	"АДРЕС", "МЕСТО", "САЙТ", "КПП", "БИК", "СЧЕТ",
	"ТОВАР", "УСЛУГА", "СНО", "СИСТЕМА НАЛОГООБЛОЖЕНИЯ",
}

// deny list: structurally matching noise from legal boilerplate
var kvDenyKeys = []string{
	"ПРИЗНАК", "РАСЧЕТ", "ПРЕДМЕТА", "ЛИЦЕНЗИЯ", "БАНКА", "РОССИИ",
	"ФЕДЕРАЦИИ", "ОКРУГУ", "СООБЩАЕТ", "БЫЛА", "СОВЕРШЕНА", "ПО",
	"ОПЕРАЦИЯ", "КАРТЕ", "ВЛАДЕЛЬЦЕМ", "КОТОРОЙ", "ЯВЛЯЕТСЯ",
}

// values ending in a dangling preposition are sentence fragments
var kvDanglingWords = map[string]bool{
	"в": true, "по": true, "на": true, "от": true,
	"для": true, "с": true, "к": true,
}

var kvSpaceRe = regexp.MustCompile(`\s+`)

// ExtractKeyValues collects the auxiliary key-value pairs of one
// document. Keys are upper-cased with collapsed whitespace.
func ExtractKeyValues(text string) map[string]string {
	pairs := make(map[string]string)

	for _, pattern := range kvPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			key := kvSpaceRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(m[1])), " ")
			value := kvSpaceRe.ReplaceAllString(strings.TrimSpace(m[2]), " ")

			if len(value) < 2 || len(value) > 100 {
				continue
			}
			if containsAny(key, kvDenyKeys) {
				continue
			}
			// more than 10 words means we matched into a sentence
			if strings.Count(value, " ") > 10 {
				continue
			}
			words := strings.Fields(value)
			if len(words) > 0 && kvDanglingWords[strings.ToLower(words[len(words)-1])] {
				continue
			}
			if containsAny(key, kvAllowKeys) {
				pairs[key] = value
			}
		}
	}

	return pairs
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
