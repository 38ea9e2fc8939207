package tts

import (
	"regexp"
	"strings"
)

// markupChars matches emphasis punctuation a speech engine would read aloud.
var markupChars = regexp.MustCompile(`[*_#]`)

// wordToken matches maximal runs of letters/digits (plus the squared sign used
// in area units), which gives whole-word matching for free: an abbreviation
// embedded in a longer word is part of that word's token and never looked up
// on its own. A trailing sentence period sits outside the token, so "dll."
// still expands.
var wordToken = regexp.MustCompile(`[\p{L}\p{N}²]+`)

// abbreviations maps common Indonesian abbreviations to their spoken form,
// keyed lowercase.
var abbreviations = map[string]string{
	"ha":   "hektar",
	"kg":   "kilogram",
	"km":   "kilometer",
	"cm":   "sentimeter",
	"m²":   "meter persegi",
	"dll":  "dan lain-lain",
	"dsb":  "dan sebagainya",
	"yth":  "Yang Terhormat",
	"rp":   "rupiah",
	"dr":   "dokter",
	"prof": "profesor",
}

// Normalize prepares assistant text for synthesis: markup characters are
// stripped and every standalone abbreviation is expanded, case-insensitively.
func Normalize(text string) string {
	cleaned := markupChars.ReplaceAllString(text, "")
	return wordToken.ReplaceAllStringFunc(cleaned, func(word string) string {
		if full, ok := abbreviations[strings.ToLower(word)]; ok {
			return full
		}
		return word
	})
}
