package links

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValidationRule accepts or rejects internal paths matching Pattern.
// Rules are consulted in order and the first matching pattern decides.
type ValidationRule struct {
	Pattern     *regexp.Regexp
	Validator   func(path string) bool
	Description string
}

// Matches reports whether the rule applies to path.
func (r ValidationRule) Matches(path string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(path)
}

// DefaultRules returns the dashboard's parameterized page rules.
func DefaultRules() []ValidationRule {
	return []ValidationRule{
		{
			Pattern: regexp.MustCompile(`^/news/\d+$`),
			Validator: func(path string) bool {
				id, err := strconv.Atoi(segment(path, 1))
				return err == nil && id > 0 && id <= 100
			},
			Description: "News article with valid ID",
		},
		mustSegmentLength(`^/creator/[A-Z]+$`, "Creator page with valid symbol", 2, 10),
		mustSegmentLength(`^/publisher/[A-Z]+$`, "Publisher page with valid symbol", 2, 10),
		{
			Pattern:     regexp.MustCompile(`^/trading/[a-zA-Z0-9-]+$`),
			Validator:   func(string) bool { return true },
			Description: "Trading sub-page",
		},
	}
}

// SegmentLengthRule builds a rule whose validator bounds the length of the
// path's last segment.
func SegmentLengthRule(pattern, description string, minLen, maxLen int) (ValidationRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ValidationRule{}, fmt.Errorf("invalid rule pattern %q: %w", pattern, err)
	}
	if minLen < 0 || (maxLen > 0 && maxLen < minLen) {
		return ValidationRule{}, fmt.Errorf("invalid length bounds %d..%d", minLen, maxLen)
	}
	return ValidationRule{
		Pattern: re,
		Validator: func(path string) bool {
			n := len(lastSegment(path))
			return n >= minLen && (maxLen == 0 || n <= maxLen)
		},
		Description: description,
	}, nil
}

func mustSegmentLength(pattern, description string, minLen, maxLen int) ValidationRule {
	r, err := SegmentLengthRule(pattern, description, minLen, maxLen)
	if err != nil {
		panic(err)
	}
	return r
}

// segment returns the i-th non-empty path segment, or "".
func segment(path string, i int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func lastSegment(path string) string {
	trimmed := strings.TrimRight(path, "/")
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}
