package store

import (
	"fmt"

	"github.com/abdul-hamid-achik/reqbench/packages/auth"
	"github.com/abdul-hamid-achik/reqbench/packages/mock"
	"github.com/abdul-hamid-achik/reqbench/packages/template"
)

// SavedQuery is a named GraphQL query bound to an endpoint.
type SavedQuery struct {
	Name      string         `json:"name"`
	Endpoint  string         `json:"endpoint"`
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// SaveTemplate stores a custom template under a key.
func (s *Store) SaveTemplate(key string, t template.Template) error {
	if key == "" {
		return fmt.Errorf("template key is required")
	}
	templates, err := loadMap[template.Template](s.path(TemplatesFile))
	if err != nil {
		return err
	}
	templates[key] = t
	return saveMap(s.path(TemplatesFile), templates)
}

// Template looks up a custom template by key.
func (s *Store) Template(key string) (template.Template, bool, error) {
	templates, err := loadMap[template.Template](s.path(TemplatesFile))
	if err != nil {
		return template.Template{}, false, err
	}
	t, ok := templates[key]
	return t, ok, nil
}

// ListTemplates returns custom template keys sorted.
func (s *Store) ListTemplates() ([]string, error) {
	templates, err := loadMap[template.Template](s.path(TemplatesFile))
	if err != nil {
		return nil, err
	}
	return sortedKeys(templates), nil
}

// DeleteTemplate removes a custom template, reporting whether it existed.
func (s *Store) DeleteTemplate(key string) (bool, error) {
	templates, err := loadMap[template.Template](s.path(TemplatesFile))
	if err != nil {
		return false, err
	}
	if _, ok := templates[key]; !ok {
		return false, nil
	}
	delete(templates, key)
	return true, saveMap(s.path(TemplatesFile), templates)
}

// SaveAuthConfig stores an auth config under its name.
func (s *Store) SaveAuthConfig(c auth.Config) error {
	if c.Name == "" {
		return fmt.Errorf("auth config name is required")
	}
	configs, err := loadMap[auth.Config](s.path(AuthFile))
	if err != nil {
		return err
	}
	configs[c.Name] = c
	return saveMap(s.path(AuthFile), configs)
}

// AuthConfig looks up an auth config by name.
func (s *Store) AuthConfig(name string) (auth.Config, bool, error) {
	configs, err := loadMap[auth.Config](s.path(AuthFile))
	if err != nil {
		return auth.Config{}, false, err
	}
	c, ok := configs[name]
	return c, ok, nil
}

// ListAuthConfigs returns auth config names sorted.
func (s *Store) ListAuthConfigs() ([]string, error) {
	configs, err := loadMap[auth.Config](s.path(AuthFile))
	if err != nil {
		return nil, err
	}
	return sortedKeys(configs), nil
}

// DeleteAuthConfig removes an auth config, reporting whether it existed.
func (s *Store) DeleteAuthConfig(name string) (bool, error) {
	configs, err := loadMap[auth.Config](s.path(AuthFile))
	if err != nil {
		return false, err
	}
	if _, ok := configs[name]; !ok {
		return false, nil
	}
	delete(configs, name)
	return true, saveMap(s.path(AuthFile), configs)
}

// SaveMockEndpoint stores a mock endpoint under its name.
func (s *Store) SaveMockEndpoint(e mock.Endpoint) error {
	if e.Name == "" {
		return fmt.Errorf("mock endpoint name is required")
	}
	mocks, err := loadMap[mock.Endpoint](s.path(MocksFile))
	if err != nil {
		return err
	}
	mocks[e.Name] = e
	return saveMap(s.path(MocksFile), mocks)
}

// ListMockEndpoints returns all saved mock endpoints sorted by name.
func (s *Store) ListMockEndpoints() ([]mock.Endpoint, error) {
	mocks, err := loadMap[mock.Endpoint](s.path(MocksFile))
	if err != nil {
		return nil, err
	}
	out := make([]mock.Endpoint, 0, len(mocks))
	for _, name := range sortedKeys(mocks) {
		out = append(out, mocks[name])
	}
	return out, nil
}

// DeleteMockEndpoint removes a mock endpoint, reporting whether it existed.
func (s *Store) DeleteMockEndpoint(name string) (bool, error) {
	mocks, err := loadMap[mock.Endpoint](s.path(MocksFile))
	if err != nil {
		return false, err
	}
	if _, ok := mocks[name]; !ok {
		return false, nil
	}
	delete(mocks, name)
	return true, saveMap(s.path(MocksFile), mocks)
}

// SaveQuery stores a GraphQL query under its name.
func (s *Store) SaveQuery(q SavedQuery) error {
	if q.Name == "" {
		return fmt.Errorf("query name is required")
	}
	queries, err := loadMap[SavedQuery](s.path(GraphQLFile))
	if err != nil {
		return err
	}
	queries[q.Name] = q
	return saveMap(s.path(GraphQLFile), queries)
}

// Query looks up a saved GraphQL query by name.
func (s *Store) Query(name string) (SavedQuery, bool, error) {
	queries, err := loadMap[SavedQuery](s.path(GraphQLFile))
	if err != nil {
		return SavedQuery{}, false, err
	}
	q, ok := queries[name]
	return q, ok, nil
}

// ListQueries returns saved GraphQL query names sorted.
func (s *Store) ListQueries() ([]string, error) {
	queries, err := loadMap[SavedQuery](s.path(GraphQLFile))
	if err != nil {
		return nil, err
	}
	return sortedKeys(queries), nil
}

// DeleteQuery removes a saved GraphQL query, reporting whether it existed.
func (s *Store) DeleteQuery(name string) (bool, error) {
	queries, err := loadMap[SavedQuery](s.path(GraphQLFile))
	if err != nil {
		return false, err
	}
	if _, ok := queries[name]; !ok {
		return false, nil
	}
	delete(queries, name)
	return true, saveMap(s.path(GraphQLFile), queries)
}
