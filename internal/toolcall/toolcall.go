// Package toolcall lets a model answer by naming a computation instead of
// doing arithmetic itself. The model writes a FUNCTION_CALL block, the
// dispatcher runs the named function over the ledger, and the result is
// spliced into the model's final sentence.
package toolcall

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Markers delimit the parts of a tool-call reply.
const (
	MarkerCall   = "FUNCTION_CALL:"
	MarkerArgs   = "ARGUMENTS:"
	MarkerResult = "RESULT:"
	MarkerFinal  = "FINAL_ANSWER:"

	// ResultPlaceholder in a final answer is replaced by the computed value.
	ResultPlaceholder = "{result}"
)

// Call is a parsed function call.
type Call struct {
	Arguments map[string]string
	Name      string
	Final     string
}

var (
	identifier    = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	trailingComma = regexp.MustCompile(`,\s*}`)
)

// Parse finds a function call in a model reply. Arguments may sit on the
// marker's line or the lines after it; missing or unparseable arguments
// leave the map empty.
func Parse(text string) (Call, bool) {
	callAt := indexFold(text, MarkerCall)
	if callAt < 0 {
		return Call{}, false
	}

	rest := text[callAt+len(MarkerCall):]
	line, _, _ := strings.Cut(rest, "\n")
	name := identifier.FindString(line)
	if name == "" {
		return Call{}, false
	}

	call := Call{Name: strings.ToLower(name), Arguments: map[string]string{}}

	if argsAt := indexFold(rest, MarkerArgs); argsAt >= 0 {
		section := rest[argsAt+len(MarkerArgs):]
		if end := nextMarker(section); end >= 0 {
			section = section[:end]
		}
		call.Arguments = parseArguments(section)
	}

	if finalAt := indexFold(rest, MarkerFinal); finalAt >= 0 {
		call.Final = strings.TrimSpace(rest[finalAt+len(MarkerFinal):])
	}
	return call, true
}

// indexFold is strings.Index ignoring ASCII case.
func indexFold(s, marker string) int {
	for i := 0; i+len(marker) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(marker)], marker) {
			return i
		}
	}
	return -1
}

func nextMarker(section string) int {
	end := -1
	for _, marker := range []string{MarkerResult, MarkerFinal, MarkerCall} {
		if i := indexFold(section, marker); i >= 0 && (end < 0 || i < end) {
			end = i
		}
	}
	return end
}

func parseArguments(section string) map[string]string {
	args := map[string]string{}
	fragment, ok := balancedObject(section)
	if !ok {
		return args
	}
	fragment = trailingComma.ReplaceAllString(fragment, "}")

	var raw map[string]any
	if err := json.Unmarshal([]byte(fragment), &raw); err != nil {
		return args
	}
	for k, v := range raw {
		args[strings.ToLower(k)] = strings.TrimSpace(fmt.Sprint(v))
	}
	return args
}

func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		switch ch := text[i]; {
		case ch == '"' && (i == 0 || text[i-1] != '\\'):
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Render wraps a computed result in the model's final answer. A final answer
// with the {result} placeholder gets it substituted. Otherwise the final
// answer's first sentence is kept as a lead-in only when it carries no
// digits, since any number the model wrote itself is untrusted; failing
// that the function's own label is used.
func Render(call Call, result string) string {
	final := strings.TrimSpace(call.Final)
	if strings.Contains(final, ResultPlaceholder) {
		return strings.ReplaceAll(final, ResultPlaceholder, result)
	}

	if lead := firstSentence(final); lead != "" && !strings.ContainsFunc(lead, unicode.IsDigit) {
		lead = strings.TrimRight(lead, ".:!, ")
		if endsWithLinkingWord(lead) {
			return fmt.Sprintf("%s %s.", lead, result)
		}
		return fmt.Sprintf("%s: %s.", lead, result)
	}

	if fn, ok := Lookup(call.Name); ok {
		return fmt.Sprintf("%s %s.", fn.Label, result)
	}
	return result
}

func firstSentence(text string) string {
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			// Keep decimals like 3.5 inside the sentence.
			if r == '.' && i+1 < len(text) && unicode.IsDigit(rune(text[i+1])) {
				continue
			}
			return strings.TrimSpace(text[:i])
		}
	}
	return strings.TrimSpace(text)
}

var linkingWords = []string{"is", "was", "are", "were", "of", "be", "spent", "totals", "totaled", "came to", "comes to", "at"}

func endsWithLinkingWord(lead string) bool {
	lower := strings.ToLower(lead)
	for _, w := range linkingWords {
		if strings.HasSuffix(lower, " "+w) {
			return true
		}
	}
	return false
}
