// Package lexicon holds the static vocabulary shared by the classifier, the
// extractor and the deterministic answer engines: category synonyms, intent
// keywords, scope phrases and time words.
package lexicon

import (
	"regexp"
	"strings"
)

// CategorySynonyms maps a spending category to the words that describe it.
var CategorySynonyms = map[string][]string{
	"food":          {"food", "groceries", "grocery", "supermarket", "restaurant", "lunch", "dinner", "breakfast", "brunch", "snack", "takeout", "pizza", "burger", "sushi", "meal"},
	"groceries":     {"groceries", "grocery", "supermarket", "market", "produce"},
	"coffee":        {"coffee", "cafe", "latte", "espresso", "starbucks"},
	"transport":     {"transport", "transportation", "gas", "fuel", "petrol", "uber", "lyft", "taxi", "cab", "bus", "train", "subway", "metro", "parking", "toll"},
	"gas":           {"gas", "fuel", "petrol", "gasoline"},
	"housing":       {"housing", "rent", "mortgage", "landlord", "hoa"},
	"utilities":     {"utilities", "utility", "electric", "electricity", "power", "water", "internet", "wifi", "phone", "cell", "heating"},
	"entertainment": {"entertainment", "movie", "movies", "cinema", "concert", "game", "games", "netflix", "spotify", "hulu", "theater"},
	"shopping":      {"shopping", "amazon", "clothes", "clothing", "shoes", "mall", "target", "walmart"},
	"health":        {"health", "doctor", "pharmacy", "medicine", "dentist", "gym", "hospital", "prescription", "clinic"},
	"subscriptions": {"subscriptions", "subscription", "netflix", "spotify", "hulu", "membership", "icloud"},
	"travel":        {"travel", "flight", "hotel", "airbnb", "airfare", "vacation", "trip"},
	"education":     {"education", "tuition", "books", "book", "course", "school"},
	"pets":          {"pets", "pet", "vet", "dog", "cat"},
	"gifts":         {"gifts", "gift", "present", "donation", "charity"},
}

// QuestionPhrases are multi-word openers that mark a spending question. They
// are tested before the add keywords so "spending on gas?" never reads as add.
var QuestionPhrases = []string{
	"how much", "how many", "what's my", "whats my", "what is my", "what was my",
	"what are my", "what did", "what have", "show me", "spending on", "spend on",
	"spent on", "did i spend", "do i spend", "have i spent", "compared to",
	"break down", "breakdown of", "tell me", "what percent", "percent change",
}

// QuestionOpeners are single words that open a question.
var QuestionOpeners = []string{
	"how", "what", "what's", "whats", "which", "when", "where", "who", "why",
	"show", "list", "is", "are", "did", "do", "does", "can", "could",
}

// AddKeywords signal an append to the ledger.
var AddKeywords = []string{"add", "spent", "spend", "paid", "pay", "bought", "buy", "purchased", "log", "record", "put"}

// DeleteKeywords signal a removal from the ledger.
var DeleteKeywords = []string{"delete", "remove", "erase", "undo", "cancel", "drop"}

// EditKeywords signal a change to an existing entry.
var EditKeywords = []string{"edit", "change", "update", "modify", "correct", "fix", "rename"}

// BatchKeywords turn a delete into a batch delete.
var BatchKeywords = []string{"all", "every", "each"}

// MultiMonthPhrases mark questions that need more than the active month.
var MultiMonthPhrases = []string{
	"last month", "previous month", "prior month", "month over month",
	"month-over-month", "compare", "compared", "comparison", "vs", "versus",
	"per month", "monthly average", "average month", "each month", "every month",
	"across months", "all months",
}

// AllTimePhrases mark questions over the whole ledger.
var AllTimePhrases = []string{"all time", "all-time", "ever", "overall", "since i started", "in total across", "lifetime"}

// AnalyticalPhrases mark advice or analysis requests the fast path declines.
var AnalyticalPhrases = []string{
	"should i", "advice", "advise", "recommend", "suggest", "tips", "tip", "save money",
	"budget", "why", "trend", "analyze", "analyse", "analysis", "insight", "pattern",
	"habits", "cut back",
}

// PercentagePhrases mark percentage questions.
var PercentagePhrases = []string{"percent", "percentage", "%", "share of", "portion of", "proportion"}

// RatioPhrases mark ratio questions.
var RatioPhrases = []string{"ratio", "times more", "times as much", "times less"}

// GreetingPhrases get the canned greeting response.
var GreetingPhrases = []string{"hi", "hello", "hey", "thanks", "thank you", "good morning", "good evening", "help", "what can you do", "who are you"}

// MonthNames maps month names and abbreviations to their number.
var MonthNames = map[string]int{
	"january": 1, "jan": 1, "february": 2, "feb": 2, "march": 3, "mar": 3,
	"april": 4, "apr": 4, "may": 5, "june": 6, "jun": 6, "july": 7, "jul": 7,
	"august": 8, "aug": 8, "september": 9, "sep": 9, "sept": 9, "october": 10,
	"oct": 10, "november": 11, "nov": 11, "december": 12, "dec": 12,
}

// Weekdays maps weekday names to their time.Weekday number.
var Weekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4, "friday": 5, "saturday": 6,
}

// RelativeDays maps relative day words to an offset from today.
var RelativeDays = map[string]int{
	"today": 0, "tonight": 0, "this morning": 0, "yesterday": -1, "day before yesterday": -2,
}

// DateWords are stripped from extracted descriptions.
var DateWords = []string{
	"today", "tonight", "yesterday", "tomorrow", "this morning", "last night",
	"day before yesterday", "this week", "last week", "this month", "last month",
}

// AmountPattern matches a money amount such as 12, 12.50 or 1,200.50. The
// grouped form is tried first so "1,200" is never read as "200".
const AmountPattern = `\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?`

var (
	wordPattern    = regexp.MustCompile(`[a-z0-9$%'.:-]+`)
	ordinalPattern = regexp.MustCompile(`^\d{1,2}(st|nd|rd|th)?$`)
)

// Tokens lower-cases text and splits it into words, trimming punctuation.
func Tokens(text string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.Trim(tok, ".:'-")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// ContainsWord reports whether text contains word as a whole word.
func ContainsWord(text, word string) bool {
	for _, tok := range Tokens(text) {
		if tok == word {
			return true
		}
	}
	return false
}

// ContainsAnyWord reports whether text contains any of the words as a whole word.
func ContainsAnyWord(text string, words []string) bool {
	tokens := Tokens(text)
	for _, word := range words {
		for _, tok := range tokens {
			if tok == word {
				return true
			}
		}
	}
	return false
}

// ContainsPhrase reports whether text contains phrase on word boundaries.
// Single words fall back to ContainsWord; symbols match as substrings.
func ContainsPhrase(text, phrase string) bool {
	text = strings.ToLower(text)
	phrase = strings.ToLower(phrase)
	if !strings.ContainsAny(phrase, "abcdefghijklmnopqrstuvwxyz") {
		return strings.Contains(text, phrase)
	}
	if !strings.Contains(phrase, " ") {
		return ContainsWord(text, phrase)
	}
	padded := " " + strings.Join(Tokens(text), " ") + " "
	return strings.Contains(padded, " "+strings.Join(Tokens(phrase), " ")+" ")
}

// ContainsAnyPhrase reports whether text contains any of the phrases.
func ContainsAnyPhrase(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if ContainsPhrase(text, phrase) {
			return true
		}
	}
	return false
}

// IsQuestion reports whether text reads as a question.
func IsQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return false
	}
	for _, opener := range QuestionOpeners {
		if tokens[0] == opener {
			return true
		}
	}
	return false
}

// IsDateWord reports whether a single token is a date word: a month, a
// weekday, a relative day or an ordinal day of month.
func IsDateWord(token string) bool {
	token = strings.ToLower(token)
	if _, ok := MonthNames[token]; ok {
		return true
	}
	if _, ok := Weekdays[token]; ok {
		return true
	}
	if _, ok := RelativeDays[token]; ok {
		return true
	}
	if token == "tomorrow" || token == "tonight" {
		return true
	}
	return ordinalPattern.MatchString(token) && !isPlainNumber(token)
}

func isPlainNumber(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Expand returns the term followed by its spelling variants and, when the
// term names a category, every synonym of that category. A plain synonym is
// not widened to its parent category: "gas" must not match an uber ride.
// The result is lower-cased and free of duplicates.
func Expand(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(words ...string) {
		for _, w := range words {
			if w != "" && !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}

	add(term, singular(term))
	for _, category := range categoryOrder {
		if category == term || category == singular(term) || singular(category) == term {
			add(CategorySynonyms[category]...)
		}
	}
	return out
}

// singular strips a trailing plural "s" from words longer than three letters.
func singular(word string) string {
	switch {
	case len(word) <= 3:
		return word
	case strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case strings.HasSuffix(word, "ss"):
		return word
	default:
		return strings.TrimSuffix(word, "s")
	}
}

// MatchesAny reports whether the description contains any of the terms.
func MatchesAny(description string, terms []string) bool {
	description = strings.ToLower(description)
	for _, term := range terms {
		if term != "" && strings.Contains(description, term) {
			return true
		}
	}
	return false
}

// categoryOrder fixes the iteration order so Expand is deterministic.
var categoryOrder = []string{
	"food", "groceries", "coffee", "transport", "gas", "housing", "utilities",
	"entertainment", "shopping", "health", "subscriptions", "travel",
	"education", "pets", "gifts",
}
