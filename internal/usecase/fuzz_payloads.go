package usecase

import (
	"strings"

	"chainverify/internal/domain"
)

// Canonical fuzz payload tables, keyed by (declared type, strategy).
// Declared types without a table of their own fall back to the string
// table. Values are test data only; nothing here is ever executed.

var boundaryStrings = []any{
	"",
	"a",
	strings.Repeat("a", 1000),
	strings.Repeat("a", 10000),
}

var boundaryIntegers = []any{
	int64(0),
	int64(-1),
	int64(1),
	int64(2147483647),
	int64(-2147483648),
	int64(9223372036854775807),
}

var boundaryNumbers = []any{
	float64(0),
	float64(-1),
	float64(1),
	1.7976931348623157e308,
	-1.7976931348623157e308,
	5e-324,
}

var injectionPayloads = []any{
	"' OR '1'='1' --",
	"<script>alert(1)</script>",
	"; cat /etc/passwd",
	"../../../../etc/passwd",
	"{{7*7}}",
	"`id`",
}

var overflowPayloads = []any{
	1e308,
	-1e308,
	"99999999999999999999999999999999",
	"-99999999999999999999999999999999",
}

var unicodePayloads = []any{
	"\x00",
	string(rune(0x10FFFF)),
	"café résumé naïve",
	"🔥💀🎉",
	"‮gnirts",
}

var formatPayloads = []any{
	"%s%s%s%s",
	"%x%x%x%x",
	"%n",
	"%p%p%p%p",
	"{0}{1}{2}",
}

var nullPayloads = []any{
	nil,
	"null",
}

var typeConfusionByType = map[domain.DataType][]any{
	domain.TypeString:  {int64(12345), true, []any{"a", "b"}},
	domain.TypeInteger: {"not_a_number", true, []any{int64(1)}},
	domain.TypeNumber:  {"not_a_number", false, map[string]any{"v": int64(1)}},
	domain.TypeBoolean: {"maybe", int64(2), []any{true}},
	domain.TypeArray:   {"not_an_array", int64(0), map[string]any{}},
	domain.TypeObject:  {"not_an_object", int64(0), []any{}},
}

// payloadsFor resolves the canonical table for a (type, strategy) pair.
func payloadsFor(dataType domain.DataType, strategy domain.FuzzStrategy) []any {
	switch strategy {
	case domain.StrategyBoundary:
		switch dataType {
		case domain.TypeInteger:
			return boundaryIntegers
		case domain.TypeNumber:
			return boundaryNumbers
		default:
			return boundaryStrings
		}
	case domain.StrategyTypeConfusion:
		if table, ok := typeConfusionByType[dataType]; ok {
			return table
		}
		return typeConfusionByType[domain.TypeString]
	case domain.StrategyInjection:
		return injectionPayloads
	case domain.StrategyOverflow:
		return overflowPayloads
	case domain.StrategyUnicode:
		return unicodePayloads
	case domain.StrategyFormat:
		return formatPayloads
	case domain.StrategyNull:
		return nullPayloads
	default:
		return nil
	}
}

// expectedBehavior annotates what a well-behaved API should do with the
// adversarial value.
func expectedBehavior(strategy domain.FuzzStrategy) string {
	switch strategy {
	case domain.StrategyInjection, domain.StrategyTypeConfusion:
		return "reject or sanitize the input"
	case domain.StrategyOverflow:
		return "reject or clamp the value"
	case domain.StrategyBoundary:
		return "handle gracefully or reject"
	default:
		return "no crash, no data exposure"
	}
}

// chaosCatalog is the fixed per-dimension scenario catalog.
var chaosCatalog = map[domain.ChaosDimension][]string{
	domain.ChaosAuth:     {"missing_token", "expired_token", "invalid_signature_token", "wrong_scope_token"},
	domain.ChaosTiming:   {"slow_response", "timeout", "race_condition"},
	domain.ChaosState:    {"invalid_transition", "stale_data", "missing_prerequisite"},
	domain.ChaosResource: {"quota_exceeded", "large_payload", "many_parameters"},
	domain.ChaosNetwork:  {"connection_reset", "partial_response", "dns_failure"},
	domain.ChaosData:     {"corrupt_encoding", "truncated_json", "wrong_content_type"},
}
