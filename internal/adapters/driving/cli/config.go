package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Reads and writes the TOML config file. Keys use dot notation, for example
fhir.base_url, forms.page_size or ui.locale.`,
	RunE: runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one value",
	Long: `Sets a value and saves the file. true/false and numbers are stored as
booleans and numbers; anything else is stored as a string.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	for _, k := range svc.Config.Keys() {
		v, _ := svc.Config.Get(k)
		cmd.Printf("%s = %v\n", k, v)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Println(svc.Config.Path())
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	v, ok := svc.Config.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Printf("%v\n", v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if err := svc.Config.Set(args[0], parseValue(args[1])); err != nil {
		return fmt.Errorf("set %s: %w", args[0], err)
	}
	cmd.Printf("%s updated.\n", args[0])
	return nil
}

// parseValue converts a command line value to a bool, integer or float when
// it parses as one.
func parseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
