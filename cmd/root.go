package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand creates the root command for the citty-domains CLI.
func NewRootCommand(name, description string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: description,
		Long: description + `

This CLI discovers a domain/resource/action taxonomy from a target
command-line application and keeps it reconciled against the live surface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	return cmd
}

// NewSettings builds the viper instance backing CLI configuration. Every
// setting can be supplied as a CITTY_* environment variable (dashes and dots
// become underscores).
func NewSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CITTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("cli-path", "")
	v.SetDefault("config-path", "")
	v.SetDefault("timeout", "10s")
	v.SetDefault("fallback-strategy", "generic")

	return v
}
