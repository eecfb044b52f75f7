package usecase

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"

	"chainverify/internal/domain"
)

const (
	defaultMaxTestsPerEndpoint = 50
	maxChaosPerEndpoint        = 3
	randomDrawsPerParameter    = 3
)

// GenerateSuiteRequest pins everything the generator needs. Identical
// requests always yield byte-identical suites.
type GenerateSuiteRequest struct {
	Spec                domain.CanonicalSpec
	Strategies          []domain.FuzzStrategy
	ChaosDimensions     []domain.ChaosDimension
	MaxTestsPerEndpoint int
	Seed                int64
}

// FuzzGenerator produces adversarial suites from a canonical spec. All
// randomness flows from the request seed, so suites are reproducible.
type FuzzGenerator struct{}

func NewFuzzGenerator() *FuzzGenerator {
	return &FuzzGenerator{}
}

func (g *FuzzGenerator) GenerateSuite(req GenerateSuiteRequest) (*domain.FuzzSuite, error) {
	if len(req.Strategies) == 0 {
		return nil, fmt.Errorf("%w: at least one fuzz strategy required", domain.ErrInvalidSpec)
	}
	maxPerEndpoint := req.MaxTestsPerEndpoint
	if maxPerEndpoint <= 0 {
		maxPerEndpoint = defaultMaxTestsPerEndpoint
	}

	strategies := normalizeStrategies(req.Strategies)
	dimensions := normalizeDimensions(req.ChaosDimensions)

	var cases []domain.FuzzTestCase
	totalInputs := 0

	for _, endpoint := range req.Spec.Endpoints {
		budget := maxPerEndpoint

		fuzzCases := g.fuzzEndpoint(endpoint, strategies, req.Seed, &budget)
		totalInputs += len(fuzzCases)
		cases = append(cases, fuzzCases...)

		if len(dimensions) > 0 && budget > 0 {
			cases = append(cases, g.chaosEndpoint(endpoint, dimensions, req.Seed, budget)...)
		}
	}

	return &domain.FuzzSuite{
		SuiteID:         suiteID(req.Spec.Title, strategies, dimensions, req.Seed),
		SpecTitle:       req.Spec.Title,
		TestCases:       cases,
		Strategies:      strategies,
		ChaosDimensions: dimensions,
		TotalFuzzInputs: totalInputs,
		Seed:            req.Seed,
	}, nil
}

// fuzzEndpoint emits one test case per (parameter, strategy, value),
// consuming the endpoint budget in stable order.
func (g *FuzzGenerator) fuzzEndpoint(endpoint domain.EndpointDefinition, strategies []domain.FuzzStrategy, seed int64, budget *int) []domain.FuzzTestCase {
	var cases []domain.FuzzTestCase
	endpointID := endpoint.EndpointID()

	for _, param := range endpoint.Parameters {
		for _, strategy := range strategies {
			values := payloadsFor(param.DataType, strategy)
			if strategy == domain.StrategyRandom {
				values = randomValues(param, endpointID, seed)
			}
			for idx, value := range values {
				if *budget <= 0 {
					return cases
				}
				*budget--
				cases = append(cases, domain.FuzzTestCase{
					TestID:     testID("FZ", endpointID, param.Name, string(strategy), idx, seed),
					EndpointID: endpointID,
					Path:       endpoint.Path,
					Method:     endpoint.Method,
					Parameters: map[string]domain.FuzzInput{
						param.Name: {
							OriginalType:     param.DataType,
							Strategy:         strategy,
							Value:            value,
							Description:      fmt.Sprintf("%s payload %d for %s parameter %q", strategy, idx, param.Location, param.Name),
							ExpectedBehavior: expectedBehavior(strategy),
						},
					},
					Seed: seed,
				})
			}
		}
	}
	return cases
}

// chaosEndpoint samples up to three scenarios without replacement from
// the union of the requested dimensions' catalogs.
func (g *FuzzGenerator) chaosEndpoint(endpoint domain.EndpointDefinition, dimensions []domain.ChaosDimension, seed int64, budget int) []domain.FuzzTestCase {
	endpointID := endpoint.EndpointID()

	type scenario struct {
		dimension domain.ChaosDimension
		name      string
	}
	var pool []scenario
	for _, dim := range dimensions {
		for _, name := range chaosCatalog[dim] {
			pool = append(pool, scenario{dimension: dim, name: name})
		}
	}
	if len(pool) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed ^ stableHash(endpointID+"|chaos")))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	n := maxChaosPerEndpoint
	if n > budget {
		n = budget
	}
	if n > len(pool) {
		n = len(pool)
	}

	cases := make([]domain.FuzzTestCase, 0, n)
	for i := 0; i < n; i++ {
		cases = append(cases, domain.FuzzTestCase{
			TestID:          testID("CH", endpointID, string(pool[i].dimension), pool[i].name, i, seed),
			EndpointID:      endpointID,
			Path:            endpoint.Path,
			Method:          endpoint.Method,
			ChaosDimensions: []domain.ChaosDimension{pool[i].dimension},
			ChaosScenario:   pool[i].name,
			Seed:            seed,
		})
	}
	return cases
}

// randomValues draws exactly three seeded values typed to the parameter.
func randomValues(param domain.ParameterDefinition, endpointID string, seed int64) []any {
	rng := rand.New(rand.NewSource(seed ^ stableHash(endpointID+"|"+param.Name)))
	values := make([]any, 0, randomDrawsPerParameter)
	for i := 0; i < randomDrawsPerParameter; i++ {
		switch param.DataType {
		case domain.TypeInteger:
			values = append(values, rng.Int63()-rng.Int63())
		case domain.TypeNumber:
			values = append(values, rng.NormFloat64()*1e6)
		case domain.TypeBoolean:
			values = append(values, rng.Intn(2) == 1)
		default:
			values = append(values, randomString(rng, 1+rng.Intn(64)))
		}
	}
	return values
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+-=[]{};:,.<>/?"

func randomString(rng *rand.Rand, length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = randomAlphabet[rng.Intn(len(randomAlphabet))]
	}
	return string(out)
}

func normalizeStrategies(in []domain.FuzzStrategy) []domain.FuzzStrategy {
	seen := map[domain.FuzzStrategy]bool{}
	var out []domain.FuzzStrategy
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalizeDimensions(in []domain.ChaosDimension) []domain.ChaosDimension {
	seen := map[domain.ChaosDimension]bool{}
	var out []domain.ChaosDimension
	for _, d := range in {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func testID(prefix, endpointID, part, detail string, idx int, seed int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%d", endpointID, part, detail, idx, seed)))
	return prefix + "-" + hex.EncodeToString(sum[:6])
}

func suiteID(title string, strategies []domain.FuzzStrategy, dimensions []domain.ChaosDimension, seed int64) string {
	h := sha256.New()
	h.Write([]byte(title))
	for _, s := range strategies {
		h.Write([]byte("|" + string(s)))
	}
	for _, d := range dimensions {
		h.Write([]byte("|" + string(d)))
	}
	fmt.Fprintf(h, "|%d", seed)
	return "suite-" + hex.EncodeToString(h.Sum(nil)[:8])
}

func stableHash(s string) int64 {
	sum := sha256.Sum256([]byte(s))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
