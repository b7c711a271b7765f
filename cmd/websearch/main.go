package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"search-aggregator/internal/app"
	"search-aggregator/internal/config"
	"search-aggregator/internal/search"
)

var (
	Version = "dev"
)

var (
	cfgFile       string
	provider      string
	maxResults    int
	exclude       []string
	browserRemote string
	timeout       time.Duration
)

var rootCmd = &cobra.Command{
	Use:     "websearch",
	Short:   "Search the web and fetch the result pages as markdown",
	Version: Version,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a query on a provider and print the results as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if browserRemote != "" {
			cfg.Browser.RemoteURL = browserRemote
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.FromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		resp, err := a.Manager.Search(ctx, provider, strings.Join(args, " "), search.Options{
			MaxResults:     maxResults,
			ExcludeDomains: exclude,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "default\t%s\n", cfg.Search.DefaultProvider)
		for id, p := range cfg.Providers {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tbrowser=%t\n", id, p.URL, p.UsingBrowser)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	searchCmd.Flags().StringVarP(&provider, "provider", "p", "", "provider id (defaults to search.default_provider)")
	searchCmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "maximum number of results")
	searchCmd.Flags().StringSliceVarP(&exclude, "exclude", "x", nil, "domains to exclude")
	searchCmd.Flags().StringVar(&browserRemote, "browser-remote", "", "CDP websocket URL of a running browser")
	searchCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall search timeout")

	rootCmd.AddCommand(searchCmd, providersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
