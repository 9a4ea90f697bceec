package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
)

// ParseOpenAPI converts an OpenAPI v3 document into request definitions,
// one per path/method pair. Path parameters become {{name}} placeholders.
func ParseOpenAPI(data []byte) ([]ImportedRequest, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	return convertOpenAPI(doc), nil
}

// ParseOpenAPIFile reads and converts an OpenAPI v3 spec file (JSON or YAML).
func ParseOpenAPIFile(path string) ([]ImportedRequest, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	return convertOpenAPI(doc), nil
}

func convertOpenAPI(doc *openapi3.T) []ImportedRequest {
	baseURL := ""
	if len(doc.Servers) > 0 {
		baseURL = strings.TrimSuffix(doc.Servers[0].URL, "/")
	}

	paths := make([]string, 0, len(doc.Paths.Map()))
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out []ImportedRequest
	for _, path := range paths {
		pathItem := doc.Paths.Map()[path]
		if pathItem == nil {
			continue
		}

		operations := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", pathItem.Get},
			{"POST", pathItem.Post},
			{"PUT", pathItem.Put},
			{"PATCH", pathItem.Patch},
			{"DELETE", pathItem.Delete},
			{"HEAD", pathItem.Head},
			{"OPTIONS", pathItem.Options},
		}

		for _, entry := range operations {
			if entry.op == nil {
				continue
			}
			out = append(out, convertOperation(baseURL, path, entry.method, entry.op))
		}
	}
	return out
}

func convertOperation(baseURL, path, method string, op *openapi3.Operation) ImportedRequest {
	name := op.OperationID
	if name == "" {
		name = strings.ToLower(method) + strings.ReplaceAll(path, "/", "_")
	}

	// {param} becomes the workbench's {{param}} placeholder form
	url := baseURL + strings.NewReplacer("{", "{{", "}", "}}").Replace(path)

	def := chain.RequestDefinition{
		Name:   name,
		Method: method,
		URL:    url,
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		for contentType := range op.RequestBody.Value.Content {
			if strings.Contains(contentType, "json") {
				def.Headers = map[string]string{"Content-Type": "application/json"}
				break
			}
		}
	}

	folder := ""
	if len(op.Tags) > 0 {
		folder = "/" + op.Tags[0]
	}

	return ImportedRequest{RequestDefinition: def, Folder: folder}
}
