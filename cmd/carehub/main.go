// Command carehub runs the home-visit care coordination server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/carehub/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	root := &cobra.Command{
		Use:           "carehub",
		Short:         "Home-visit care coordination server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringP("db", "d", "carehub.sqlite3", "SQLite database path")
	bindFlags(v, root.PersistentFlags(), map[string]string{"db": "db"})

	load := func() (*config.Config, error) {
		return config.Load(v, configFile)
	}

	root.AddCommand(
		newServeCmd(v, load),
		newInitCmd(v, load),
		newMigrateCmd(load),
	)
	return root
}

// bindFlags binds config keys to the named flags. Subcommands bind when they
// run, since several of them define a flag for the same key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag --%s: %v", name, err))
		}
	}
}
