package expiry

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/go-secure-stdlib/parseutil"

	apperrors "github.com/kbukum/authtoken/errors"
)

var units = map[string]time.Duration{
	"ms": time.Millisecond, "msec": time.Millisecond, "millisecond": time.Millisecond,
	"s": time.Second, "sec": time.Second, "second": time.Second,
	"m": time.Minute, "min": time.Minute, "minute": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hour": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "wk": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour,
}

// ParseDuration parses a human-readable duration such as "2 hours",
// "1 day, 30 minutes" or "90 seconds". Go-style ("1h30m") and bare-seconds
// ("3600") forms are accepted too. Negative or empty input is a config error.
//
// Parse once at configuration time; the result is reused for every request.
func ParseDuration(input string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, apperrors.Config("duration is empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, apperrors.Config("duration %q must not be negative", input)
	}
	if d, err := parseutil.ParseDurationSecond(s); err == nil {
		return d, nil
	}
	d, err := parseWords(s)
	if err != nil {
		return 0, apperrors.Config("invalid duration %q: %s", input, err.Error())
	}
	return d, nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

// parseWords handles "<number> <unit>" pairs separated by spaces, commas or "and".
func parseWords(s string) (time.Duration, error) {
	tokens := tokenize(s)
	if len(tokens) == 0 || len(tokens)%2 != 0 {
		return 0, parseError("expected <number> <unit> pairs")
	}
	var total float64
	for i := 0; i < len(tokens); i += 2 {
		n, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil || n < 0 || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, parseError("bad number " + strconv.Quote(tokens[i]))
		}
		unit, ok := lookupUnit(tokens[i+1])
		if !ok {
			return 0, parseError("unknown unit " + strconv.Quote(tokens[i+1]))
		}
		total += n * float64(unit)
	}
	if total > math.MaxInt64 {
		return 0, parseError("duration overflows")
	}
	return time.Duration(total), nil
}

func lookupUnit(word string) (time.Duration, bool) {
	if u, ok := units[word]; ok {
		return u, true
	}
	if strings.HasSuffix(word, "s") {
		u, ok := units[strings.TrimSuffix(word, "s")]
		return u, ok
	}
	return 0, false
}

// tokenize splits "1 day, 2hours and 3 min" into ["1","day","2","hours","3","min"].
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	var curDigit bool
	flush := func() {
		if cur.Len() > 0 {
			if w := cur.String(); w != "and" {
				tokens = append(tokens, w)
			}
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == ',':
			flush()
		case unicode.IsDigit(r) || r == '.':
			if cur.Len() > 0 && !curDigit {
				flush()
			}
			curDigit = true
			cur.WriteRune(r)
		default:
			if cur.Len() > 0 && curDigit {
				flush()
			}
			curDigit = false
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
