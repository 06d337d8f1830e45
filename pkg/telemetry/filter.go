package telemetry

import (
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// FilterConfig declares how session material is masked before it is logged
// or attached to spans and metrics.
type FilterConfig struct {
	// Mask replaces every matched segment. Defaults to "[redacted]".
	Mask string
	// Patterns augments the built-in expressions.
	Patterns []string
	// Literals are exact strings to mask, typically the current cookie values.
	Literals []string
}

// Filter masks cookies, pagination cursors and credentials in free text.
type Filter struct {
	mask     string
	patterns []*regexp.Regexp
	literals []string
}

var defaultPatterns = []string{
	`(?i)\b(next|backward)=[^&\s"]+`,
	`(?i)\bcookie[\s:=]+[^\n"]+`,
	`(?i)(api[_-]?key|token|secret|bearer)[\s:=]+[a-z0-9\-_.]{8,}`,
}

// NewFilter compiles the configured patterns.
func NewFilter(cfg FilterConfig) (*Filter, error) {
	mask := strings.TrimSpace(cfg.Mask)
	if mask == "" {
		mask = "[redacted]"
	}
	seen := map[string]struct{}{}
	compiled := make([]*regexp.Regexp, 0, len(defaultPatterns)+len(cfg.Patterns))
	for _, raw := range append(append([]string{}, defaultPatterns...), cfg.Patterns...) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("telemetry: compile filter %q: %w", raw, err)
		}
		compiled = append(compiled, re)
		seen[raw] = struct{}{}
	}
	return &Filter{mask: mask, patterns: compiled, literals: cleanLiterals(cfg.Literals)}, nil
}

// WithLiterals returns a copy of f that also masks the given exact strings.
func (f *Filter) WithLiterals(literals ...string) *Filter {
	if f == nil {
		return nil
	}
	clone := *f
	clone.literals = cleanLiterals(append(append([]string{}, f.literals...), literals...))
	return &clone
}

// MaskText replaces every sensitive segment in value.
func (f *Filter) MaskText(value string) string {
	if f == nil || value == "" {
		return value
	}
	masked := value
	for _, lit := range f.literals {
		masked = strings.ReplaceAll(masked, lit, f.mask)
	}
	for _, re := range f.patterns {
		masked = re.ReplaceAllString(masked, f.mask)
	}
	return masked
}

// MaskAttributes returns a sanitized copy of attrs.
func (f *Filter) MaskAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	if f == nil || len(attrs) == 0 {
		return attrs
	}
	clean := make([]attribute.KeyValue, len(attrs))
	for i, attr := range attrs {
		switch attr.Value.Type() {
		case attribute.STRING:
			clean[i] = attribute.String(string(attr.Key), f.MaskText(attr.Value.AsString()))
		case attribute.STRINGSLICE:
			values := attr.Value.AsStringSlice()
			masked := make([]string, len(values))
			for j, v := range values {
				masked[j] = f.MaskText(v)
			}
			clean[i] = attribute.StringSlice(string(attr.Key), masked)
		default:
			clean[i] = attr
		}
	}
	return clean
}

// Short literals would mask unrelated text.
const minLiteralLen = 4

func cleanLiterals(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, lit := range in {
		if len(lit) < minLiteralLen {
			continue
		}
		if _, ok := seen[lit]; ok {
			continue
		}
		seen[lit] = struct{}{}
		out = append(out, lit)
	}
	return out
}
