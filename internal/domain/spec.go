package domain

type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodPatch   HTTPMethod = "PATCH"
	MethodDelete  HTTPMethod = "DELETE"
	MethodHead    HTTPMethod = "HEAD"
	MethodOptions HTTPMethod = "OPTIONS"
)

// SafeMethods are the only methods the executor may ever dispatch for real.
var SafeMethods = map[HTTPMethod]bool{
	MethodGet:     true,
	MethodHead:    true,
	MethodOptions: true,
}

func (m HTTPMethod) IsSafe() bool {
	return SafeMethods[m]
}

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
	LocationBody   ParameterLocation = "body"
)

type DataType string

const (
	TypeString  DataType = "string"
	TypeInteger DataType = "integer"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeArray   DataType = "array"
	TypeObject  DataType = "object"
	TypeFile    DataType = "file"
	TypeNull    DataType = "null"
)

type ParameterDefinition struct {
	Name        string            `json:"name"`
	Location    ParameterLocation `json:"location"`
	DataType    DataType          `json:"data_type"`
	Required    bool              `json:"required"`
	Description string            `json:"description,omitempty"`
	Default     any               `json:"default,omitempty"`
	EnumValues  []string          `json:"enum_values,omitempty"`
	Pattern     string            `json:"pattern,omitempty"`
	MinValue    *float64          `json:"min_value,omitempty"`
	MaxValue    *float64          `json:"max_value,omitempty"`
	MinLength   *int              `json:"min_length,omitempty"`
	MaxLength   *int              `json:"max_length,omitempty"`
}

type EndpointDefinition struct {
	Path                 string                `json:"path"`
	Method               HTTPMethod            `json:"method"`
	OperationID          string                `json:"operation_id"`
	Summary              string                `json:"summary,omitempty"`
	Description          string                `json:"description,omitempty"`
	Parameters           []ParameterDefinition `json:"parameters,omitempty"`
	RequestBodySchema    map[string]any        `json:"request_body_schema,omitempty"`
	ResponseSchemas      map[string]any        `json:"response_schemas,omitempty"`
	SecurityRequirements []map[string][]string `json:"security_requirements,omitempty"`
	Tags                 []string              `json:"tags,omitempty"`
	Deprecated           bool                  `json:"deprecated,omitempty"`
}

// EndpointID uniquely identifies an endpoint within a CanonicalSpec.
func (e EndpointDefinition) EndpointID() string {
	return string(e.Method) + ":" + e.Path
}

func (e EndpointDefinition) PathParameters() []ParameterDefinition {
	return e.parametersIn(LocationPath)
}

func (e EndpointDefinition) QueryParameters() []ParameterDefinition {
	return e.parametersIn(LocationQuery)
}

func (e EndpointDefinition) HeaderParameters() []ParameterDefinition {
	return e.parametersIn(LocationHeader)
}

func (e EndpointDefinition) RequiredParameters() []ParameterDefinition {
	var out []ParameterDefinition
	for _, p := range e.Parameters {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

func (e EndpointDefinition) parametersIn(loc ParameterLocation) []ParameterDefinition {
	var out []ParameterDefinition
	for _, p := range e.Parameters {
		if p.Location == loc {
			out = append(out, p)
		}
	}
	return out
}

// CanonicalSpec is the version-agnostic endpoint catalog produced by
// ingestion. It is immutable once built; re-ingestion under the same id
// replaces it wholesale.
type CanonicalSpec struct {
	Title           string               `json:"title"`
	Version         string               `json:"version"`
	Description     string               `json:"description,omitempty"`
	BaseURL         string               `json:"base_url,omitempty"`
	Endpoints       []EndpointDefinition `json:"endpoints"`
	SecuritySchemes map[string]any       `json:"security_schemes,omitempty"`
	SourceVersion   string               `json:"source_version"`
}

func (s CanonicalSpec) EndpointCount() int {
	return len(s.Endpoints)
}

func (s CanonicalSpec) MethodsUsed() map[HTTPMethod]bool {
	used := make(map[HTTPMethod]bool, len(s.Endpoints))
	for _, e := range s.Endpoints {
		used[e.Method] = true
	}
	return used
}

func (s CanonicalSpec) TagsUsed() map[string]bool {
	used := map[string]bool{}
	for _, e := range s.Endpoints {
		for _, tag := range e.Tags {
			used[tag] = true
		}
	}
	return used
}

func (s CanonicalSpec) EndpointsByTag(tag string) []EndpointDefinition {
	var out []EndpointDefinition
	for _, e := range s.Endpoints {
		for _, t := range e.Tags {
			if t == tag {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (s CanonicalSpec) EndpointsByMethod(method HTTPMethod) []EndpointDefinition {
	var out []EndpointDefinition
	for _, e := range s.Endpoints {
		if e.Method == method {
			out = append(out, e)
		}
	}
	return out
}
