package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage saved auth configurations",
}

var (
	authAddHeaderFlag   string
	authAddKeyFlag      string
	authAddUsernameFlag string
	authAddPasswordFlag string
	authAddTokenFlag    string
)

var authAddCmd = &cobra.Command{
	Use:   "add <name> <type>",
	Short: "Save an auth configuration",
	Long: `Save a named auth configuration. Supported types are apikey, basic,
and bearer.

Examples:
  reqbench auth add prod-token bearer --token xyz
  reqbench auth add internal basic --username ana --password s3cret
  reqbench auth add vendor apikey --header X-Api-Key --key abc123`,
	Args: cobra.ExactArgs(2),
	RunE: authAddCommand,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved auth configurations",
	Args:  cobra.NoArgs,
	RunE:  authListCommand,
}

var authShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved auth configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  authShowCommand,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved auth configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  authDeleteCommand,
}

func init() {
	authAddCmd.Flags().StringVar(&authAddHeaderFlag, "header", "", "Header name (apikey)")
	authAddCmd.Flags().StringVar(&authAddKeyFlag, "key", "", "API key value (apikey)")
	authAddCmd.Flags().StringVar(&authAddUsernameFlag, "username", "", "Username (basic)")
	authAddCmd.Flags().StringVar(&authAddPasswordFlag, "password", "", "Password (basic)")
	authAddCmd.Flags().StringVar(&authAddTokenFlag, "token", "", "Bearer token (bearer)")

	authCmd.AddCommand(authAddCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authDeleteCmd)
}

func authAddCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	c := auth.Config{
		Name:     args[0],
		Type:     args[1],
		Header:   authAddHeaderFlag,
		Key:      authAddKeyFlag,
		Username: authAddUsernameFlag,
		Password: authAddPasswordFlag,
		Token:    authAddTokenFlag,
	}
	if _, err := c.Headers(); err != nil {
		return err
	}

	if err := st.SaveAuthConfig(c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Auth config %q saved.\n", c.Name)
	return nil
}

func authListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	names, err := st.ListAuthConfigs()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved auth configs.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	return nil
}

func authShowCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	c, ok, err := st.AuthConfig(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("auth config %q not found", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", c.Name, c.Type)
	switch c.Type {
	case auth.TypeAPIKey:
		fmt.Fprintf(out, "  header: %s\n", c.Header)
	case auth.TypeBasic:
		fmt.Fprintf(out, "  username: %s\n", c.Username)
	}
	return nil
}

func authDeleteCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	existed, err := st.DeleteAuthConfig(args[0])
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("auth config %q not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Auth config %q deleted.\n", args[0])
	return nil
}
