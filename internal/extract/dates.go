package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/lexicon"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// DateResolver finds date phrases in free text relative to an injected clock.
// Month-day phrases without a year are placed relative to the active month,
// which defaults to the clock's month.
type DateResolver struct {
	now    func() time.Time
	active time.Time
}

// NewDateResolver creates a resolver. A nil clock means time.Now.
func NewDateResolver(now func() time.Time) *DateResolver {
	if now == nil {
		now = time.Now
	}
	return &DateResolver{now: now}
}

// InMonth returns a copy of r anchored to the active month key ("2025-11").
// An unparsable key leaves the anchor at the clock's month.
func (r *DateResolver) InMonth(month string) *DateResolver {
	anchored := *r
	if t, err := time.Parse(model.MonthKeyLayout, month); err == nil {
		anchored.active = t
	}
	return &anchored
}

// anchor returns the year and month that yearless dates are placed against.
func (r *DateResolver) anchor() (int, time.Month) {
	if !r.active.IsZero() {
		return r.active.Year(), r.active.Month()
	}
	today := r.Today()
	return today.Year(), today.Month()
}

// Today returns the current calendar day in UTC.
func (r *DateResolver) Today() time.Time {
	return day(r.now())
}

type datePattern struct {
	re      *regexp.Regexp
	resolve func(r *DateResolver, m []string) (time.Time, bool)
}

var (
	monthAlt   = alternation(lexicon.MonthNames)
	weekdayAlt = alternation(lexicon.Weekdays)
	numberWord = map[string]int{"a": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10}
)

// datePatterns are tried in order; longer phrases precede their prefixes.
var datePatterns = []datePattern{
	{
		re: regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		resolve: func(_ *DateResolver, m []string) (time.Time, bool) {
			return calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
	},
	{
		re: regexp.MustCompile(`\b(?:the\s+)?day before yesterday\b`),
		resolve: func(r *DateResolver, _ []string) (time.Time, bool) {
			return r.Today().AddDate(0, 0, -2), true
		},
	},
	{
		re: regexp.MustCompile(`\b(?:yesterday|last night)\b`),
		resolve: func(r *DateResolver, _ []string) (time.Time, bool) {
			return r.Today().AddDate(0, 0, -1), true
		},
	},
	{
		re: regexp.MustCompile(`\b(?:today|tonight|this morning|this afternoon|this evening)\b`),
		resolve: func(r *DateResolver, _ []string) (time.Time, bool) {
			return r.Today(), true
		},
	},
	{
		re: regexp.MustCompile(`\b(\d{1,3}|a|one|two|three|four|five|six|seven|eight|nine|ten)\s+days?\s+ago\b`),
		resolve: func(r *DateResolver, m []string) (time.Time, bool) {
			n, ok := numberWord[m[1]]
			if !ok {
				n = atoi(m[1])
			}
			return r.Today().AddDate(0, 0, -n), true
		},
	},
	{
		re: regexp.MustCompile(`\b(?:last|on|this past)\s+(` + weekdayAlt + `)\b`),
		resolve: func(r *DateResolver, m []string) (time.Time, bool) {
			return r.previousWeekday(time.Weekday(lexicon.Weekdays[m[1]])), true
		},
	},
	{
		re: regexp.MustCompile(`\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`),
		resolve: func(r *DateResolver, m []string) (time.Time, bool) {
			return r.monthDay(lexicon.MonthNames[m[1]], atoi(m[2]), m[3])
		},
	},
	{
		re: regexp.MustCompile(`\b(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+of\s+(` + monthAlt + `)\.?(?:,?\s+(\d{4}))?\b`),
		resolve: func(r *DateResolver, m []string) (time.Time, bool) {
			return r.monthDay(lexicon.MonthNames[m[2]], atoi(m[1]), m[3])
		},
	},
	{
		re: regexp.MustCompile(`\b(?:on\s+)?the\s+(\d{1,2})(?:st|nd|rd|th)\b`),
		resolve: func(r *DateResolver, m []string) (time.Time, bool) {
			year, month := r.anchor()
			return calendarDate(year, int(month), atoi(m[1]))
		},
	},
	{
		re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`),
		resolve: func(r *DateResolver, m []string) (time.Time, bool) {
			return r.monthDay(atoi(m[1]), atoi(m[2]), m[3])
		},
	},
}

// Resolve returns the first date phrase found in text.
func (r *DateResolver) Resolve(text string) (time.Time, bool) {
	lower := strings.ToLower(text)
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if date, ok := p.resolve(r, m); ok {
			return date, true
		}
	}
	return time.Time{}, false
}

// stripPatterns are the date patterns made case-insensitive, so stripping
// keeps the casing of the surrounding words.
var stripPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(datePatterns))
	for i, p := range datePatterns {
		out[i] = regexp.MustCompile(`(?i)` + p.re.String())
	}
	return out
}()

// Strip removes every recognized date phrase from text.
func (r *DateResolver) Strip(text string) string {
	for _, re := range stripPatterns {
		text = re.ReplaceAllString(text, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

// previousWeekday returns the most recent wd strictly before today.
func (r *DateResolver) previousWeekday(wd time.Weekday) time.Time {
	today := r.Today()
	diff := int(today.Weekday()) - int(wd)
	if diff <= 0 {
		diff += 7
	}
	return today.AddDate(0, 0, -diff)
}

// monthDay builds a date in the given month. Without an explicit year the
// anchor year is used, or the year before when the month comes after the
// anchor month.
func (r *DateResolver) monthDay(month, dayOfMonth int, year string) (time.Time, bool) {
	if year != "" {
		y := atoi(year)
		if y < 100 {
			y += 2000
		}
		return calendarDate(y, month, dayOfMonth)
	}
	anchorYear, anchorMonth := r.anchor()
	if month > int(anchorMonth) {
		anchorYear--
	}
	return calendarDate(anchorYear, month, dayOfMonth)
}

// calendarDate rejects dates that time.Date would normalize, like Feb 30.
func calendarDate(year, month, dayOfMonth int) (time.Time, bool) {
	if month < 1 || month > 12 || dayOfMonth < 1 || dayOfMonth > 31 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
	if date.Month() != time.Month(month) || date.Day() != dayOfMonth {
		return time.Time{}, false
	}
	return date, true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// alternation builds a regexp alternation of the keys, longest first so
// "september" wins over "sep".
func alternation[V any](words map[string]V) string {
	keys := make([]string, 0, len(words))
	for k := range words {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return strings.Join(keys, "|")
}
