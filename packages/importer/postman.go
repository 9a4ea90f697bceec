// Package importer converts external collection formats into request
// definitions the workbench can save and execute.
package importer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
)

// ImportedRequest is a request definition plus the folder it came from.
type ImportedRequest struct {
	chain.RequestDefinition
	Folder string `json:"folder,omitempty"`
}

type postmanCollection struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
	Item []postmanItem `json:"item"`
}

type postmanItem struct {
	Name    string          `json:"name"`
	Item    []postmanItem   `json:"item"`
	Request *postmanRequest `json:"request"`
}

type postmanRequest struct {
	Method string          `json:"method"`
	URL    postmanURL      `json:"url"`
	Header []postmanHeader `json:"header"`
	Body   *postmanBody    `json:"body"`
}

type postmanHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type postmanBody struct {
	Raw string `json:"raw"`
}

// postmanURL is either a bare string or an object with a "raw" field.
type postmanURL struct {
	Raw string
}

func (u *postmanURL) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		u.Raw = s
		return nil
	}
	var obj struct {
		Raw string `json:"raw"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	u.Raw = obj.Raw
	return nil
}

// ParsePostman converts a Postman v2 collection, walking folders recursively.
func ParsePostman(data []byte) ([]ImportedRequest, error) {
	var collection postmanCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to parse postman collection: %w", err)
	}

	var out []ImportedRequest
	walkPostmanItems(collection.Item, "", &out)
	return out, nil
}

// ParsePostmanFile reads and converts a Postman collection file.
func ParsePostmanFile(path string) ([]ImportedRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	return ParsePostman(data)
}

func walkPostmanItems(items []postmanItem, folder string, out *[]ImportedRequest) {
	for _, item := range items {
		if len(item.Item) > 0 {
			walkPostmanItems(item.Item, folder+"/"+item.Name, out)
			continue
		}
		if item.Request == nil {
			continue
		}

		req := item.Request
		name := item.Name
		if name == "" {
			name = "Untitled"
		}
		method := req.Method
		if method == "" {
			method = "GET"
		}

		def := chain.RequestDefinition{
			Name:   name,
			Method: method,
			URL:    req.URL.Raw,
		}
		if len(req.Header) > 0 {
			def.Headers = make(map[string]string, len(req.Header))
			for _, h := range req.Header {
				def.Headers[h.Key] = h.Value
			}
		}
		if req.Body != nil && req.Body.Raw != "" {
			body := req.Body.Raw
			def.Body = &body
		}

		*out = append(*out, ImportedRequest{RequestDefinition: def, Folder: folder})
	}
}
