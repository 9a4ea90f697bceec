package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/graphql"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
	"github.com/abdul-hamid-achik/reqbench/packages/vars"
)

var graphqlCmd = &cobra.Command{
	Use:   "graphql",
	Short: "Execute and manage GraphQL queries",
}

var (
	graphqlQueryFlag     string
	graphqlFileFlag      string
	graphqlVarFlags      []string
	graphqlHeaderFlags   []string
	graphqlSaveFlag      string
	graphqlEndpointFlags string
)

var graphqlExecCmd = &cobra.Command{
	Use:   "exec <endpoint>",
	Short: "Execute a GraphQL query",
	Long: `Execute a GraphQL query against an endpoint. The query comes from
--query, --file, or a previously saved query via --saved.

Examples:
  reqbench graphql exec https://api.example.com/graphql --query 'query { user { id } }'
  reqbench graphql exec https://api.example.com/graphql --file query.graphql --var id=7
  reqbench graphql exec https://api.example.com/graphql --saved get-user`,
	Args: cobra.ExactArgs(1),
	RunE: graphqlExecCommand,
}

var graphqlIntrospectCmd = &cobra.Command{
	Use:   "introspect <endpoint>",
	Short: "Fetch an endpoint's schema",
	Args:  cobra.ExactArgs(1),
	RunE:  graphqlIntrospectCommand,
}

var graphqlValidateCmd = &cobra.Command{
	Use:   "validate <query>",
	Short: "Check a query for balanced braces and a known operation keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  graphqlValidateCommand,
}

var graphqlFormatCmd = &cobra.Command{
	Use:   "format <query>",
	Short: "Re-indent a query",
	Args:  cobra.ExactArgs(1),
	RunE:  graphqlFormatCommand,
}

var graphqlSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a query for later execution",
	Args:  cobra.ExactArgs(1),
	RunE:  graphqlSaveCommand,
}

var graphqlListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved queries",
	Args:  cobra.NoArgs,
	RunE:  graphqlListCommand,
}

var graphqlDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved query",
	Args:  cobra.ExactArgs(1),
	RunE:  graphqlDeleteCommand,
}

var graphqlSavedFlag string

func init() {
	graphqlExecCmd.Flags().StringVarP(&graphqlQueryFlag, "query", "q", "", "Query text")
	graphqlExecCmd.Flags().StringVarP(&graphqlFileFlag, "file", "f", "", "File containing the query")
	graphqlExecCmd.Flags().StringVar(&graphqlSavedFlag, "saved", "", "Name of a saved query")
	graphqlExecCmd.Flags().StringArrayVar(&graphqlVarFlags, "var", nil, "Query variable (KEY=VALUE, repeatable)")
	graphqlExecCmd.Flags().StringArrayVarP(&graphqlHeaderFlags, "header", "H", nil, "Request header (\"Key: Value\", repeatable)")

	graphqlIntrospectCmd.Flags().StringArrayVarP(&graphqlHeaderFlags, "header", "H", nil, "Request header (\"Key: Value\", repeatable)")

	graphqlSaveCmd.Flags().StringVarP(&graphqlQueryFlag, "query", "q", "", "Query text")
	graphqlSaveCmd.Flags().StringVarP(&graphqlFileFlag, "file", "f", "", "File containing the query")
	graphqlSaveCmd.Flags().StringVar(&graphqlEndpointFlags, "endpoint", "", "Endpoint the query targets")

	graphqlCmd.AddCommand(graphqlExecCmd)
	graphqlCmd.AddCommand(graphqlIntrospectCmd)
	graphqlCmd.AddCommand(graphqlValidateCmd)
	graphqlCmd.AddCommand(graphqlFormatCmd)
	graphqlCmd.AddCommand(graphqlSaveCmd)
	graphqlCmd.AddCommand(graphqlListCmd)
	graphqlCmd.AddCommand(graphqlDeleteCmd)
}

func resolveQueryText(st *store.Store) (string, error) {
	switch {
	case graphqlQueryFlag != "":
		return graphqlQueryFlag, nil
	case graphqlFileFlag != "":
		data, err := os.ReadFile(graphqlFileFlag)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case graphqlSavedFlag != "":
		q, ok, err := st.Query(graphqlSavedFlag)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("query %q not found", graphqlSavedFlag)
		}
		return q.Query, nil
	}
	return "", fmt.Errorf("one of --query, --file, or --saved is required")
}

func graphqlExecCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	query, err := resolveQueryText(st)
	if err != nil {
		return err
	}
	if err := graphql.ValidateQuery(query); err != nil {
		return err
	}

	headers, err := parseHeaders(graphqlHeaderFlags)
	if err != nil {
		return err
	}

	// Substitute {{VAR}} placeholders in the endpoint before sending.
	environment, err := resolveVariables(cfg, st, nil)
	if err != nil {
		return err
	}
	endpoint := vars.Substitute(args[0], environment)

	pairs, err := parsePairs(graphqlVarFlags)
	if err != nil {
		return err
	}
	variables := make(map[string]any, len(pairs))
	for k, v := range pairs {
		variables[k] = v
	}

	client := graphql.NewClient(newHTTPClient(cfg))
	result, err := client.Execute(cmd.Context(), endpoint, query, variables, headers)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func graphqlIntrospectCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	headers, err := parseHeaders(graphqlHeaderFlags)
	if err != nil {
		return err
	}

	client := graphql.NewClient(newHTTPClient(cfg))
	schema, err := client.Introspect(cmd.Context(), args[0], headers)
	if err != nil {
		return err
	}
	return printJSON(cmd, schema)
}

func graphqlValidateCommand(cmd *cobra.Command, args []string) error {
	if err := graphql.ValidateQuery(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Query is valid.")
	return nil
}

func graphqlFormatCommand(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), graphql.FormatQuery(args[0]))
	return nil
}

func graphqlSaveCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	query, err := resolveQueryText(st)
	if err != nil {
		return err
	}
	if err := graphql.ValidateQuery(query); err != nil {
		return err
	}

	q := store.SavedQuery{
		Name:     args[0],
		Endpoint: graphqlEndpointFlags,
		Query:    query,
	}
	if err := st.SaveQuery(q); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Query %q saved.\n", q.Name)
	return nil
}

func graphqlListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	names, err := st.ListQueries()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved queries.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	return nil
}

func graphqlDeleteCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	existed, err := st.DeleteQuery(args[0])
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("query %q not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Query %q deleted.\n", args[0])
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
