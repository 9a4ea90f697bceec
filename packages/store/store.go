// Package store persists workbench entities as JSON files under a base
// directory. Writes overwrite the whole file; the store is meant for a
// single user's local workbench, not concurrent writers.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
)

// File names under the storage directory, one per entity kind.
const (
	RequestsFile     = "requests.json"
	ChainsFile       = "chains.json"
	EnvironmentsFile = "environments.json"
	TemplatesFile    = "templates.json"
	AuthFile         = "auth.json"
	MocksFile        = "mocks.json"
	GraphQLFile      = "graphql.json"
	HistoryFile      = "history.json"
)

// Chain is a saved chain definition: its request names in execution order,
// the extraction rules, and seed variables.
type Chain struct {
	Name      string                `json:"name"`
	Requests  []string              `json:"requests"`
	Rules     []chain.ExtractionRule `json:"rules,omitempty"`
	Variables map[string]string     `json:"variables,omitempty"`
}

// Store reads and writes all entity files under one directory.
type Store struct {
	dir string
}

// New creates a store, making the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(file string) string {
	return filepath.Join(s.dir, file)
}

// loadMap reads a name-keyed entity file. A missing file is an empty map.
func loadMap[T any](path string) (map[string]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]T), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	items := make(map[string]T)
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return items, nil
}

func saveMap[T any](path string, items map[string]T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0644)
}

func sortedKeys[T any](items map[string]T) []string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SaveRequest stores a request definition under its name.
func (s *Store) SaveRequest(def chain.RequestDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("request name is required")
	}
	requests, err := loadMap[chain.RequestDefinition](s.path(RequestsFile))
	if err != nil {
		return err
	}
	requests[def.Name] = def
	return saveMap(s.path(RequestsFile), requests)
}

// Request looks up a saved request by name.
func (s *Store) Request(name string) (chain.RequestDefinition, bool, error) {
	requests, err := loadMap[chain.RequestDefinition](s.path(RequestsFile))
	if err != nil {
		return chain.RequestDefinition{}, false, err
	}
	def, ok := requests[name]
	return def, ok, nil
}

// ListRequests returns all saved requests sorted by name.
func (s *Store) ListRequests() ([]chain.RequestDefinition, error) {
	requests, err := loadMap[chain.RequestDefinition](s.path(RequestsFile))
	if err != nil {
		return nil, err
	}
	out := make([]chain.RequestDefinition, 0, len(requests))
	for _, name := range sortedKeys(requests) {
		out = append(out, requests[name])
	}
	return out, nil
}

// DeleteRequest removes a saved request, reporting whether it existed.
func (s *Store) DeleteRequest(name string) (bool, error) {
	requests, err := loadMap[chain.RequestDefinition](s.path(RequestsFile))
	if err != nil {
		return false, err
	}
	if _, ok := requests[name]; !ok {
		return false, nil
	}
	delete(requests, name)
	return true, saveMap(s.path(RequestsFile), requests)
}

// SaveChain stores a chain definition under its name.
func (s *Store) SaveChain(c Chain) error {
	if c.Name == "" {
		return fmt.Errorf("chain name is required")
	}
	chains, err := loadMap[Chain](s.path(ChainsFile))
	if err != nil {
		return err
	}
	chains[c.Name] = c
	return saveMap(s.path(ChainsFile), chains)
}

// Chain looks up a saved chain by name.
func (s *Store) Chain(name string) (Chain, bool, error) {
	chains, err := loadMap[Chain](s.path(ChainsFile))
	if err != nil {
		return Chain{}, false, err
	}
	c, ok := chains[name]
	return c, ok, nil
}

// ListChains returns all saved chains sorted by name.
func (s *Store) ListChains() ([]Chain, error) {
	chains, err := loadMap[Chain](s.path(ChainsFile))
	if err != nil {
		return nil, err
	}
	out := make([]Chain, 0, len(chains))
	for _, name := range sortedKeys(chains) {
		out = append(out, chains[name])
	}
	return out, nil
}

// DeleteChain removes a saved chain, reporting whether it existed.
func (s *Store) DeleteChain(name string) (bool, error) {
	chains, err := loadMap[Chain](s.path(ChainsFile))
	if err != nil {
		return false, err
	}
	if _, ok := chains[name]; !ok {
		return false, nil
	}
	delete(chains, name)
	return true, saveMap(s.path(ChainsFile), chains)
}

// Steps resolves a chain's request names into executor steps.
func (s *Store) Steps(c Chain) ([]chain.Step, error) {
	requests, err := loadMap[chain.RequestDefinition](s.path(RequestsFile))
	if err != nil {
		return nil, err
	}
	steps := make([]chain.Step, 0, len(c.Requests))
	for _, name := range c.Requests {
		def, ok := requests[name]
		if !ok {
			return nil, fmt.Errorf("chain %s references unknown request %q", c.Name, name)
		}
		steps = append(steps, chain.Step{Request: def})
	}
	return steps, nil
}

// SaveEnvironment stores a named variable set.
func (s *Store) SaveEnvironment(name string, variables map[string]string) error {
	if name == "" {
		return fmt.Errorf("environment name is required")
	}
	envs, err := loadMap[map[string]string](s.path(EnvironmentsFile))
	if err != nil {
		return err
	}
	envs[name] = variables
	return saveMap(s.path(EnvironmentsFile), envs)
}

// EnvironmentVariables returns the variables of a named environment.
func (s *Store) EnvironmentVariables(name string) (map[string]string, bool, error) {
	envs, err := loadMap[map[string]string](s.path(EnvironmentsFile))
	if err != nil {
		return nil, false, err
	}
	variables, ok := envs[name]
	return variables, ok, nil
}

// ListEnvironments returns environment names sorted.
func (s *Store) ListEnvironments() ([]string, error) {
	envs, err := loadMap[map[string]string](s.path(EnvironmentsFile))
	if err != nil {
		return nil, err
	}
	return sortedKeys(envs), nil
}

// DeleteEnvironment removes an environment, reporting whether it existed.
func (s *Store) DeleteEnvironment(name string) (bool, error) {
	envs, err := loadMap[map[string]string](s.path(EnvironmentsFile))
	if err != nil {
		return false, err
	}
	if _, ok := envs[name]; !ok {
		return false, nil
	}
	delete(envs, name)
	return true, saveMap(s.path(EnvironmentsFile), envs)
}
