package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/template"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Browse and apply request templates",
}

var (
	templateUseNameFlag   string
	templateUseMethodFlag string
	templateUsePathFlag   string
	templateUseHeaderFlag []string
	templateUseDataFlag   string
	templateUseParamFlags []string
	templateUseSaveFlag   bool
)

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available templates",
	Args:  cobra.NoArgs,
	RunE:  templateListCommand,
}

var templateShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show a template and its variables",
	Args:  cobra.ExactArgs(1),
	RunE:  templateShowCommand,
}

var templateUseCmd = &cobra.Command{
	Use:   "use <key>",
	Short: "Build a request from a template",
	Long: `Build a request definition from a template, optionally overriding its
method, path, headers, and body.

Examples:
  reqbench template use jsonplaceholder --path /posts --name list-posts --save
  reqbench template use github_api --path /repos/{{OWNER}}/{{REPO}}`,
	Args: cobra.ExactArgs(1),
	RunE: templateUseCommand,
}

func init() {
	templateUseCmd.Flags().StringVar(&templateUseNameFlag, "name", "", "Name for the resulting request")
	templateUseCmd.Flags().StringVar(&templateUseMethodFlag, "method", "", "Override the template method")
	templateUseCmd.Flags().StringVar(&templateUsePathFlag, "path", "", "Path appended to the template base URL")
	templateUseCmd.Flags().StringArrayVarP(&templateUseHeaderFlag, "header", "H", nil, "Extra header (\"Key: Value\", repeatable)")
	templateUseCmd.Flags().StringVarP(&templateUseDataFlag, "data", "d", "", "Override the template body")
	templateUseCmd.Flags().StringArrayVar(&templateUseParamFlags, "param", nil, "Query parameter (KEY=VALUE, repeatable)")
	templateUseCmd.Flags().BoolVar(&templateUseSaveFlag, "save", false, "Save the resulting request")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateUseCmd)
}

func templateListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Built-in templates:")
	for _, key := range template.BuiltInKeys() {
		t, _ := template.Get(key)
		fmt.Fprintf(out, "  %-18s %s\n", key, t.Description)
	}

	custom, err := st.ListTemplates()
	if err != nil {
		return err
	}
	if len(custom) > 0 {
		fmt.Fprintln(out, "\nCustom templates:")
		for _, key := range custom {
			fmt.Fprintf(out, "  %s\n", key)
		}
	}
	return nil
}

func lookupTemplate(cmd *cobra.Command, key string) (template.Template, error) {
	if t, ok := template.Get(key); ok {
		return t, nil
	}

	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return template.Template{}, err
	}
	t, ok, err := st.Template(key)
	if err != nil {
		return template.Template{}, err
	}
	if !ok {
		return template.Template{}, fmt.Errorf("template %q not found", key)
	}
	return t, nil
}

func templateShowCommand(cmd *cobra.Command, args []string) error {
	t, err := lookupTemplate(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", t.Name, t.Category)
	fmt.Fprintf(out, "  %s\n", t.Description)
	fmt.Fprintf(out, "  %s %s\n", t.Method, t.BaseURL)
	if variables := t.Variables(); len(variables) > 0 {
		fmt.Fprintf(out, "  variables: %s\n", strings.Join(variables, ", "))
	}
	if t.Body != nil {
		fmt.Fprintf(out, "\n%s\n", *t.Body)
	}
	return nil
}

func templateUseCommand(cmd *cobra.Command, args []string) error {
	t, err := lookupTemplate(cmd, args[0])
	if err != nil {
		return err
	}

	headers, err := parseHeaders(templateUseHeaderFlag)
	if err != nil {
		return err
	}
	params, err := parsePairs(templateUseParamFlags)
	if err != nil {
		return err
	}

	overrides := template.Overrides{
		Name:    templateUseNameFlag,
		Method:  templateUseMethodFlag,
		Path:    templateUsePathFlag,
		Headers: headers,
		Params:  params,
	}
	if templateUseDataFlag != "" {
		overrides.Body = &templateUseDataFlag
	}

	def := t.Apply(overrides)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s\n", def.Name, def.Method, def.URL)
	for k, v := range def.Headers {
		fmt.Fprintf(out, "  %s: %s\n", k, v)
	}
	if def.Body != nil {
		fmt.Fprintf(out, "\n%s\n", *def.Body)
	}

	if templateUseSaveFlag {
		cfg := loadConfig()
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		if err := st.SaveRequest(def); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nRequest %q saved.\n", def.Name)
	}
	return nil
}
