package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/genolift/internal/vcflift"
)

// configurableKeys lists the only settings liftvcf actually reads back out
// of ~/.genolift.yaml, so `config set`/`config get` can reject typos
// instead of silently storing a key nothing ever consults.
var configurableKeys = map[string]string{
	"defaults.acceptable-deletion":  "uint",
	"defaults.acceptable-insertion": "uint",
	"defaults.allow-multimap":       "bool",
	"defaults.no-cache":             "bool",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage liftvcf's default flag values",
		Long:  "Show, get, or set liftvcf's default flag values. Config is stored in ~/.genolift.yaml.",
		Example: `  genolift config                                      # show current defaults
  genolift config set defaults.acceptable-deletion 10
  genolift config get defaults.acceptable-deletion`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one of liftvcf's default flag values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get one of liftvcf's default flag values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.genolift.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	kind, ok := configurableKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, knownKeys())
	}

	switch kind {
	case "bool":
		switch value {
		case "true", "yes", "on":
			viper.Set(key, true)
		case "false", "no", "off":
			viper.Set(key, false)
		default:
			return fmt.Errorf("config key %q expects a boolean, got %q", key, value)
		}
	case "uint":
		if _, err := parseConfigUint(value); err != nil {
			return fmt.Errorf("config key %q expects a non-negative integer, got %q", key, value)
		}
		viper.Set(key, value)
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".genolift.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	if _, ok := configurableKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, knownKeys())
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}

func knownKeys() string {
	keys := make([]string, 0, len(configurableKeys))
	for k := range configurableKeys {
		keys = append(keys, k)
	}
	return fmt.Sprint(keys)
}

func parseConfigUint(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

// applyConfigDefaults overrides any liftvcf flag not set on the command
// line with the matching ~/.genolift.yaml setting, read only now
// (RunE time) since PersistentPreRunE has not loaded the config file yet
// when liftvcf's flags are registered. An explicit command-line flag
// always wins over the config file.
func applyConfigDefaults(cmd *cobra.Command, params *vcflift.Params, noCache *bool) {
	flags := cmd.Flags()
	if !flags.Changed("acceptable-deletion") && viper.IsSet("defaults.acceptable-deletion") {
		params.AcceptableDeletion = viper.GetUint64("defaults.acceptable-deletion")
	}
	if !flags.Changed("acceptable-insertion") && viper.IsSet("defaults.acceptable-insertion") {
		params.AcceptableInsertion = viper.GetUint64("defaults.acceptable-insertion")
	}
	if !flags.Changed("allow-multimap") && viper.IsSet("defaults.allow-multimap") {
		params.AllowMultimap = viper.GetBool("defaults.allow-multimap")
	}
	if !flags.Changed("no-cache") && viper.IsSet("defaults.no-cache") {
		*noCache = viper.GetBool("defaults.no-cache")
	}
}
