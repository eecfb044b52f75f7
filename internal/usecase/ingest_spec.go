package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"chainverify/internal/domain"
)

var operationMethods = []string{"get", "post", "put", "patch", "delete", "head", "options"}

var pathParamPattern = regexp.MustCompile(`\{[^}]+\}`)

// SpecIngestor parses OpenAPI 3.x / Swagger 2.0 documents into canonical
// specs and keeps a catalog of them. Parsing is pure: no external calls,
// and a malformed document fails atomically with nothing stored.
type SpecIngestor struct {
	mu    sync.RWMutex
	specs map[string]domain.CanonicalSpec

	Repo  SpecRepository
	Audit *AuditEmitter
}

func NewSpecIngestor() *SpecIngestor {
	return &SpecIngestor{specs: make(map[string]domain.CanonicalSpec)}
}

// IngestJSON parses a raw JSON document and ingests it under specID.
func (s *SpecIngestor) IngestJSON(ctx context.Context, raw []byte, specID string) (*domain.CanonicalSpec, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrInvalidSpec, err)
	}
	return s.Ingest(ctx, doc, specID)
}

// Ingest parses an already-decoded document. Re-ingestion under the same
// id replaces the stored spec wholesale.
func (s *SpecIngestor) Ingest(ctx context.Context, doc map[string]any, specID string) (*domain.CanonicalSpec, error) {
	var (
		spec domain.CanonicalSpec
		err  error
	)
	switch {
	case doc["openapi"] != nil:
		spec, err = parseOpenAPI3(doc)
	case doc["swagger"] != nil:
		spec, err = parseSwagger2(doc)
	default:
		err = fmt.Errorf("%w: missing 'openapi' or 'swagger' marker", domain.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	if err := checkEndpointIDs(spec.Endpoints); err != nil {
		return nil, err
	}

	key := specID
	if key == "" {
		key = spec.Title + ":" + spec.Version
	}

	// The durable upsert gates the catalog commit; a failed persist
	// leaves any previously stored spec under this id in place.
	if s.Repo != nil {
		if err := s.Repo.Upsert(ctx, key, spec); err != nil {
			return nil, fmt.Errorf("persist spec: %w", err)
		}
	}

	s.mu.Lock()
	s.specs[key] = spec
	s.mu.Unlock()
	if s.Audit != nil {
		_ = s.Audit.EmitSpecIngested(ctx, key, spec.Title, len(spec.Endpoints))
	}
	return &spec, nil
}

func (s *SpecIngestor) Get(specID string) (*domain.CanonicalSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.specs[specID]
	if !ok {
		return nil, false
	}
	return &spec, true
}

func (s *SpecIngestor) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.specs))
	for id := range s.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func checkEndpointIDs(endpoints []domain.EndpointDefinition) error {
	seen := make(map[string]bool, len(endpoints))
	for _, e := range endpoints {
		id := e.EndpointID()
		if seen[id] {
			return fmt.Errorf("%w: duplicate endpoint %s", domain.ErrInvalidSpec, id)
		}
		seen[id] = true
	}
	return nil
}

func parseOpenAPI3(doc map[string]any) (domain.CanonicalSpec, error) {
	version, _ := doc["openapi"].(string)
	if !strings.HasPrefix(version, "3.") {
		return domain.CanonicalSpec{}, fmt.Errorf("%w: openapi version %q", domain.ErrUnsupportedFormat, version)
	}

	info := asMap(doc["info"])
	components := asMap(doc["components"])

	baseURL := ""
	if servers, ok := doc["servers"].([]any); ok && len(servers) > 0 {
		baseURL, _ = asMap(servers[0])["url"].(string)
	}

	endpoints, err := parsePathsOpenAPI3(asMap(doc["paths"]), components)
	if err != nil {
		return domain.CanonicalSpec{}, err
	}

	return domain.CanonicalSpec{
		Title:           stringOr(info["title"], "Untitled API"),
		Version:         stringOr(info["version"], "0.0.0"),
		Description:     stringOr(info["description"], ""),
		BaseURL:         baseURL,
		Endpoints:       endpoints,
		SecuritySchemes: asMap(components["securitySchemes"]),
		SourceVersion:   version,
	}, nil
}

func parseSwagger2(doc map[string]any) (domain.CanonicalSpec, error) {
	version, _ := doc["swagger"].(string)
	if version != "2.0" {
		return domain.CanonicalSpec{}, fmt.Errorf("%w: swagger version %q", domain.ErrUnsupportedFormat, version)
	}

	info := asMap(doc["info"])

	scheme := "https"
	if schemes, ok := doc["schemes"].([]any); ok && len(schemes) > 0 {
		if s, ok := schemes[0].(string); ok && s != "" {
			scheme = s
		}
	}
	host, _ := doc["host"].(string)
	basePath, _ := doc["basePath"].(string)
	baseURL := ""
	if host != "" {
		baseURL = scheme + "://" + host + basePath
	}

	endpoints, err := parsePathsSwagger2(asMap(doc["paths"]))
	if err != nil {
		return domain.CanonicalSpec{}, err
	}

	return domain.CanonicalSpec{
		Title:           stringOr(info["title"], "Untitled API"),
		Version:         stringOr(info["version"], "0.0.0"),
		Description:     stringOr(info["description"], ""),
		BaseURL:         baseURL,
		Endpoints:       endpoints,
		SecuritySchemes: asMap(doc["securityDefinitions"]),
		SourceVersion:   "2.0",
	}, nil
}

func parsePathsOpenAPI3(paths, components map[string]any) ([]domain.EndpointDefinition, error) {
	var endpoints []domain.EndpointDefinition

	for _, path := range sortedKeys(paths) {
		if strings.HasPrefix(path, "x-") {
			continue
		}
		pathItem := asMap(paths[path])
		pathParams, _ := pathItem["parameters"].([]any)

		for _, methodName := range operationMethods {
			opRaw, ok := pathItem[methodName]
			if !ok {
				continue
			}
			op := asMap(opRaw)

			merged := append(append([]any{}, pathParams...), asSlice(op["parameters"])...)
			params, err := parseParametersOpenAPI3(merged, components)
			if err != nil {
				return nil, err
			}

			var bodySchema map[string]any
			if rb, ok := op["requestBody"]; ok {
				bodySchema = extractRequestBodySchema(asMap(rb))
			}

			responses := map[string]any{}
			for status, respRaw := range asMap(op["responses"]) {
				resp := asMap(respRaw)
				content := asMap(resp["content"])
				for _, ct := range sortedKeys(content) {
					if schema, ok := asMap(content[ct])["schema"]; ok {
						responses[status] = schema
						break
					}
				}
			}

			endpoints = append(endpoints, buildEndpoint(path, methodName, op, params, bodySchema, responses))
		}
	}
	return endpoints, nil
}

func parsePathsSwagger2(paths map[string]any) ([]domain.EndpointDefinition, error) {
	var endpoints []domain.EndpointDefinition

	for _, path := range sortedKeys(paths) {
		if strings.HasPrefix(path, "x-") {
			continue
		}
		pathItem := asMap(paths[path])
		pathParams, _ := pathItem["parameters"].([]any)

		for _, methodName := range operationMethods {
			opRaw, ok := pathItem[methodName]
			if !ok {
				continue
			}
			op := asMap(opRaw)

			merged := append(append([]any{}, pathParams...), asSlice(op["parameters"])...)
			var params []domain.ParameterDefinition
			var bodySchema map[string]any
			for _, raw := range merged {
				param := asMap(raw)
				if param["in"] == "body" {
					bodySchema = asMap(param["schema"])
					continue
				}
				params = append(params, parseParameterSwagger2(param))
			}

			responses := map[string]any{}
			for status, respRaw := range asMap(op["responses"]) {
				if schema, ok := asMap(respRaw)["schema"]; ok {
					responses[status] = schema
				}
			}

			endpoints = append(endpoints, buildEndpoint(path, methodName, op, params, bodySchema, responses))
		}
	}
	return endpoints, nil
}

func buildEndpoint(path, methodName string, op map[string]any, params []domain.ParameterDefinition, bodySchema, responses map[string]any) domain.EndpointDefinition {
	opID := stringOr(op["operationId"], "")
	if opID == "" {
		opID = methodName + "_" + pathSlug(path)
	}
	deprecated, _ := op["deprecated"].(bool)
	return domain.EndpointDefinition{
		Path:                 path,
		Method:               domain.HTTPMethod(strings.ToUpper(methodName)),
		OperationID:          opID,
		Summary:              stringOr(op["summary"], ""),
		Description:          stringOr(op["description"], ""),
		Parameters:           params,
		RequestBodySchema:    bodySchema,
		ResponseSchemas:      responses,
		SecurityRequirements: parseSecurity(op["security"]),
		Tags:                 stringSlice(op["tags"]),
		Deprecated:           deprecated,
	}
}

func parseParametersOpenAPI3(parameters []any, components map[string]any) ([]domain.ParameterDefinition, error) {
	var result []domain.ParameterDefinition
	for _, raw := range parameters {
		param := asMap(raw)
		if ref, ok := param["$ref"].(string); ok {
			param = resolveRef(ref, components)
		}
		schema := asMap(param["schema"])
		required, _ := param["required"].(bool)
		result = append(result, domain.ParameterDefinition{
			Name:        stringOr(param["name"], ""),
			Location:    domain.ParameterLocation(stringOr(param["in"], "query")),
			DataType:    canonicalType(stringOr(schema["type"], "string")),
			Required:    required,
			Description: stringOr(param["description"], ""),
			Default:     schema["default"],
			EnumValues:  stringSlice(schema["enum"]),
			Pattern:     stringOr(schema["pattern"], ""),
			MinValue:    floatPtr(schema["minimum"]),
			MaxValue:    floatPtr(schema["maximum"]),
			MinLength:   intPtr(schema["minLength"]),
			MaxLength:   intPtr(schema["maxLength"]),
		})
	}
	return result, nil
}

func parseParameterSwagger2(param map[string]any) domain.ParameterDefinition {
	required, _ := param["required"].(bool)
	return domain.ParameterDefinition{
		Name:        stringOr(param["name"], ""),
		Location:    domain.ParameterLocation(stringOr(param["in"], "query")),
		DataType:    canonicalType(stringOr(param["type"], "string")),
		Required:    required,
		Description: stringOr(param["description"], ""),
		Default:     param["default"],
		EnumValues:  stringSlice(param["enum"]),
		Pattern:     stringOr(param["pattern"], ""),
		MinValue:    floatPtr(param["minimum"]),
		MaxValue:    floatPtr(param["maximum"]),
		MinLength:   intPtr(param["minLength"]),
		MaxLength:   intPtr(param["maxLength"]),
	}
}

// extractRequestBodySchema prefers application/json, then form encoding,
// then whatever content type is declared first.
func extractRequestBodySchema(requestBody map[string]any) map[string]any {
	content := asMap(requestBody["content"])
	for _, ct := range []string{"application/json", "application/x-www-form-urlencoded"} {
		if entry, ok := content[ct]; ok {
			return asMap(asMap(entry)["schema"])
		}
	}
	for _, ct := range sortedKeys(content) {
		return asMap(asMap(content[ct])["schema"])
	}
	return nil
}

// resolveRef handles one-level-deep #/components/... references.
func resolveRef(ref string, components map[string]any) map[string]any {
	if !strings.HasPrefix(ref, "#/components/") {
		return map[string]any{}
	}
	parts := strings.Split(ref, "/")[2:]
	current := components
	for _, part := range parts {
		current = asMap(current[part])
	}
	return current
}

func pathSlug(path string) string {
	clean := pathParamPattern.ReplaceAllString(path, "")
	clean = strings.Trim(clean, "/")
	clean = strings.ReplaceAll(clean, "/", "_")
	clean = strings.ReplaceAll(clean, "-", "_")
	if clean == "" {
		return "root"
	}
	return clean
}

func canonicalType(t string) domain.DataType {
	switch domain.DataType(t) {
	case domain.TypeString, domain.TypeInteger, domain.TypeNumber, domain.TypeBoolean,
		domain.TypeArray, domain.TypeObject, domain.TypeFile, domain.TypeNull:
		return domain.DataType(t)
	default:
		return domain.TypeString
	}
}

func parseSecurity(raw any) []map[string][]string {
	var out []map[string][]string
	for _, entry := range asSlice(raw) {
		req := map[string][]string{}
		for name, scopes := range asMap(entry) {
			req[name] = stringSlice(scopes)
		}
		out = append(out, req)
	}
	return out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func stringSlice(v any) []string {
	var out []string
	for _, item := range asSlice(v) {
		switch s := item.(type) {
		case string:
			out = append(out, s)
		default:
			out = append(out, fmt.Sprintf("%v", s))
		}
	}
	return out
}

func floatPtr(v any) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

func intPtr(v any) *int {
	if f, ok := v.(float64); ok {
		n := int(f)
		return &n
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
