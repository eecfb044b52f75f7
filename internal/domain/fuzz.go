package domain

type FuzzStrategy string

const (
	StrategyBoundary      FuzzStrategy = "BOUNDARY"
	StrategyTypeConfusion FuzzStrategy = "TYPE_CONFUSION"
	StrategyInjection     FuzzStrategy = "INJECTION"
	StrategyOverflow      FuzzStrategy = "OVERFLOW"
	StrategyUnicode       FuzzStrategy = "UNICODE"
	StrategyNull          FuzzStrategy = "NULL"
	StrategyFormat        FuzzStrategy = "FORMAT"
	StrategyRandom        FuzzStrategy = "RANDOM"
)

type ChaosDimension string

const (
	ChaosAuth     ChaosDimension = "AUTH"
	ChaosTiming   ChaosDimension = "TIMING"
	ChaosState    ChaosDimension = "STATE"
	ChaosResource ChaosDimension = "RESOURCE"
	ChaosNetwork  ChaosDimension = "NETWORK"
	ChaosData     ChaosDimension = "DATA"
)

// AllChaosDimensions is the fixed dimension set, in scoring order.
var AllChaosDimensions = []ChaosDimension{
	ChaosAuth,
	ChaosTiming,
	ChaosState,
	ChaosResource,
	ChaosNetwork,
	ChaosData,
}

type FuzzInput struct {
	OriginalType     DataType     `json:"original_type"`
	Strategy         FuzzStrategy `json:"strategy"`
	Value            any          `json:"value"`
	Description      string       `json:"description"`
	ExpectedBehavior string       `json:"expected_behavior"`
}

type FuzzTestCase struct {
	TestID          string               `json:"test_id"`
	EndpointID      string               `json:"endpoint_id"`
	Path            string               `json:"path"`
	Method          HTTPMethod           `json:"method"`
	Parameters      map[string]FuzzInput `json:"parameters,omitempty"`
	ChaosDimensions []ChaosDimension     `json:"chaos_dimensions,omitempty"`
	ChaosScenario   string               `json:"chaos_scenario,omitempty"`
	Seed            int64                `json:"seed"`
}

// FuzzSuite is immutable after generation. Identical (spec, seed,
// strategies, dimensions) inputs yield identical suites.
type FuzzSuite struct {
	SuiteID         string           `json:"suite_id"`
	SpecTitle       string           `json:"spec_title"`
	TestCases       []FuzzTestCase   `json:"test_cases"`
	Strategies      []FuzzStrategy   `json:"strategies"`
	ChaosDimensions []ChaosDimension `json:"chaos_dimensions,omitempty"`
	TotalFuzzInputs int              `json:"total_fuzz_inputs"`
	Seed            int64            `json:"seed"`
}
