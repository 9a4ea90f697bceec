package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
)

func exportFixtures() []chain.RequestDefinition {
	body := `{"user": "ana"}`
	return []chain.RequestDefinition{
		{
			Name:   "login",
			Method: "POST",
			URL:    "https://api.test/login",
			Headers: map[string]string{
				"Content-Type": "application/json",
				"Accept":       "application/json",
			},
			Body: &body,
		},
		{
			Name:   "ping",
			Method: "GET",
			URL:    "https://api.test/ping",
		},
	}
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(exportFixtures())
	require.NoError(t, err)

	var out map[string]chain.RequestDefinition
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 2)

	login := out["login"]
	assert.Equal(t, "POST", login.Method)
	assert.Equal(t, "https://api.test/login", login.URL)
	require.NotNil(t, login.Body)
	assert.Equal(t, `{"user": "ana"}`, *login.Body)
	assert.Equal(t, "GET", out["ping"].Method)
}

func TestExportPostmanRoundTrip(t *testing.T) {
	data, err := ExportPostman("workbench", exportFixtures())
	require.NoError(t, err)

	var collection map[string]any
	require.NoError(t, json.Unmarshal(data, &collection))
	info := collection["info"].(map[string]any)
	assert.Equal(t, "workbench", info["name"])
	assert.Contains(t, info["schema"], "v2.1.0")

	requests, err := ParsePostman(data)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	login := requests[0]
	assert.Equal(t, "login", login.Name)
	assert.Equal(t, "POST", login.Method)
	assert.Equal(t, "https://api.test/login", login.URL)
	assert.Equal(t, "application/json", login.Headers["Content-Type"])
	require.NotNil(t, login.Body)
	assert.Equal(t, `{"user": "ana"}`, *login.Body)

	ping := requests[1]
	assert.Equal(t, "ping", ping.Name)
	assert.Nil(t, ping.Body)
}

func TestExportPostmanEmpty(t *testing.T) {
	data, err := ExportPostman("empty", nil)
	require.NoError(t, err)

	requests, err := ParsePostman(data)
	require.NoError(t, err)
	assert.Empty(t, requests)
}
