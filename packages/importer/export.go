package importer

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
)

const postmanSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// ExportJSON renders definitions as the name-keyed JSON object the store
// uses, suitable for re-import with plain tooling.
func ExportJSON(defs []chain.RequestDefinition) ([]byte, error) {
	out := make(map[string]chain.RequestDefinition, len(defs))
	for _, def := range defs {
		out[def.Name] = def
	}
	return json.MarshalIndent(out, "", "  ")
}

// ExportPostman renders definitions as a flat Postman v2.1 collection.
// ParsePostman on the output yields the same requests back.
func ExportPostman(collectionName string, defs []chain.RequestDefinition) ([]byte, error) {
	collection := postmanExport{
		Info: postmanExportInfo{
			Name:   collectionName,
			Schema: postmanSchema,
		},
		Item: make([]postmanExportItem, 0, len(defs)),
	}

	for _, def := range defs {
		item := postmanExportItem{
			Name: def.Name,
			Request: postmanExportRequest{
				Method: def.Method,
				URL:    def.URL,
			},
		}
		keys := make([]string, 0, len(def.Headers))
		for key := range def.Headers {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			item.Request.Header = append(item.Request.Header, postmanHeader{Key: key, Value: def.Headers[key]})
		}
		if def.Body != nil {
			item.Request.Body = &postmanBody{Raw: *def.Body}
		}
		collection.Item = append(collection.Item, item)
	}

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	return data, nil
}

type postmanExport struct {
	Info postmanExportInfo   `json:"info"`
	Item []postmanExportItem `json:"item"`
}

type postmanExportInfo struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
}

type postmanExportItem struct {
	Name    string               `json:"name"`
	Request postmanExportRequest `json:"request"`
}

// postmanExportRequest writes the URL as a bare string, which postmanURL
// accepts on the way back in.
type postmanExportRequest struct {
	Method string          `json:"method"`
	URL    string          `json:"url"`
	Header []postmanHeader `json:"header,omitempty"`
	Body   *postmanBody    `json:"body,omitempty"`
}
