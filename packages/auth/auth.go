// Package auth builds authentication headers from saved auth configurations.
// Only header construction is supported; token acquisition flows are out of scope.
package auth

import (
	"encoding/base64"
	"fmt"

	"github.com/abdul-hamid-achik/reqbench/packages/http"
)

// Supported auth config types.
const (
	TypeAPIKey = "apikey"
	TypeBasic  = "basic"
	TypeBearer = "bearer"
)

// Config is a named, reusable authentication configuration.
type Config struct {
	Name string `json:"name"`
	Type string `json:"type"`

	// apikey
	Header string `json:"header,omitempty"`
	Key    string `json:"key,omitempty"`

	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// bearer
	Token string `json:"token,omitempty"`
}

// Headers returns the header map the config contributes to a request.
func (c *Config) Headers() (map[string]string, error) {
	switch c.Type {
	case TypeAPIKey:
		if c.Header == "" {
			return nil, fmt.Errorf("apikey config %q: missing header name", c.Name)
		}
		return map[string]string{c.Header: c.Key}, nil
	case TypeBasic:
		creds := c.Username + ":" + c.Password
		encoded := base64.StdEncoding.EncodeToString([]byte(creds))
		return map[string]string{"Authorization": "Basic " + encoded}, nil
	case TypeBearer:
		return map[string]string{"Authorization": "Bearer " + c.Token}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", c.Type)
	}
}

// Apply sets the config's headers on the request, overwriting existing values.
func Apply(req *http.Request, c *Config) error {
	headers, err := c.Headers()
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	return nil
}
