package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	EnvFile     string
	SessionFile string
	Provider    string
	Model       string
	NoColor     bool
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "frames",
		Short:         "Frames AI - console assistant for animators",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.EnvFile, "env-file", ".env", "Path to a .env file")
	flags.StringVar(&opts.SessionFile, "session", "", "Session file (overrides SESSION_FILE)")
	rootCmd.Flags().StringVar(&opts.Provider, "provider", "", "LLM provider: openai, gemini or yandex (overrides LLM_PROVIDER)")
	rootCmd.Flags().StringVar(&opts.Model, "model", "", "Model for this session")
	rootCmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable styled output")

	rootCmd.AddCommand(statsCommand(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "frames:", err)
		os.Exit(1)
	}
}
