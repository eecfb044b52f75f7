package policyopa

import "github.com/open-policy-agent/opa/ast"

// Safety bundles run under a restricted capability set: assignment,
// comparison, aggregates, and the string and object helpers that
// endpoint-matching rules need. Nothing that reaches the network, the
// clock, or the host environment is admitted.
var allowedBuiltins = builtinSet(
	// unification and comparison
	"assign", "eq", "equal", "neq", "gt", "gte", "lt", "lte",
	// aggregates
	"count", "max", "min", "sum", "sort",
	// endpoint and method matching
	"concat", "contains", "endswith", "startswith", "lower", "upper",
	"replace", "split", "sprintf", "substring",
	"trim", "trim_left", "trim_right",
	// payload shaping
	"object.get", "object.remove", "object.union",
	"json.marshal", "json.unmarshal",
)

func builtinSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func filterBuiltins(builtins []*ast.Builtin) []*ast.Builtin {
	allowed := make([]*ast.Builtin, 0, len(builtins))
	for _, builtin := range builtins {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			continue
		}
		allowed = append(allowed, builtin)
	}
	return allowed
}
