package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/auth"
	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/config"
	"github.com/abdul-hamid-achik/reqbench/packages/http"
	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

var (
	sendHeaderFlags []string
	sendDataFlag    string
	sendParamFlags  []string
	sendVarFlags    []string
	sendAuthFlag    string
	sendSaveFlag    string
)

var sendCmd = &cobra.Command{
	Use:   "send <method> <url>",
	Short: "Send a one-off HTTP request",
	Long: `Send a single HTTP request without saving it first.

URLs, headers, and bodies may contain {{VARIABLE}} placeholders resolved
from the selected environment and --var overrides.

Examples:
  reqbench send GET https://api.example.com/users
  reqbench send POST https://api.example.com/users -d '{"name": "Ana"}'
  reqbench send GET '{{BASE_URL}}/users/{{ID}}' --env dev --var ID=42
  reqbench send GET https://api.example.com/me --auth prod-token
  reqbench send GET https://api.example.com/users --save list-users`,
	Args: cobra.ExactArgs(2),
	RunE: sendCommand,
}

func init() {
	sendCmd.Flags().StringArrayVarP(&sendHeaderFlags, "header", "H", nil, "Request header (\"Key: Value\", repeatable)")
	sendCmd.Flags().StringVarP(&sendDataFlag, "data", "d", "", "Request body")
	sendCmd.Flags().StringArrayVar(&sendParamFlags, "param", nil, "Query parameter (KEY=VALUE, repeatable)")
	sendCmd.Flags().StringArrayVar(&sendVarFlags, "var", nil, "Variable override (KEY=VALUE, repeatable)")
	sendCmd.Flags().StringVar(&sendAuthFlag, "auth", "", "Saved auth config to apply")
	sendCmd.Flags().StringVar(&sendSaveFlag, "save", "", "Save the request under this name after sending")
}

func sendCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	variables, err := resolveVariables(cfg, st, sendVarFlags)
	if err != nil {
		return err
	}
	headers, err := parseHeaders(sendHeaderFlags)
	if err != nil {
		return err
	}
	params, err := parsePairs(sendParamFlags)
	if err != nil {
		return err
	}

	def := chain.RequestDefinition{
		Name:    sendSaveFlag,
		Method:  strings.ToUpper(args[0]),
		URL:     args[1],
		Headers: headers,
		Params:  params,
	}
	if sendDataFlag != "" {
		def.Body = &sendDataFlag
	}

	resp, err := runDefinition(cmd.Context(), cfg, st, def, variables, sendAuthFlag)
	if err != nil {
		return err
	}
	newFormatter(cfg).FormatResponse(resp)

	if sendSaveFlag != "" {
		if err := st.SaveRequest(def); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nRequest %q saved.\n", sendSaveFlag)
	}
	return nil
}

// runDefinition renders, authenticates, and sends a single definition,
// appending history and metrics along the way.
func runDefinition(ctx context.Context, cfg *config.Config, st *store.Store, def chain.RequestDefinition, variables map[string]string, authName string) (*http.Response, error) {
	req := chain.RenderRequest(def, variables)

	if authName != "" {
		ac, ok, err := st.AuthConfig(authName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("auth config %q not found", authName)
		}
		if err := auth.Apply(req, &ac); err != nil {
			return nil, err
		}
	}

	if err := http.ValidateURL(req.URL); err != nil {
		return nil, err
	}

	client := newHTTPClient(cfg)
	resp, err := client.Do(ctx, req)

	entry := store.HistoryEntry{
		Kind:       "request",
		Name:       def.Name,
		Method:     def.Method,
		URL:        req.BuildURL(),
		Success:    err == nil,
		ExecutedAt: time.Now(),
	}
	if resp != nil {
		entry.StatusCode = resp.StatusCode
		entry.DurationSeconds = resp.Duration.Seconds()
	}
	_ = st.AppendHistory(entry)

	if resp != nil {
		if rec := openRecorder(cfg); rec != nil {
			_, _ = rec.Record(ctx, metrics.Sample{
				RequestName:     def.Name,
				Method:          def.Method,
				URL:             req.BuildURL(),
				StatusCode:      resp.StatusCode,
				DurationSeconds: resp.Duration.Seconds(),
			})
			_ = rec.Close()
		}
	}

	return resp, err
}
