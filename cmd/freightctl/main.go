package main

import (
	"fmt"
	"os"
	"time"

	"go-freight/internal/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serverURL  string
	token      string
	resource   string
	pageSize   int
	jsonOutput bool
	verbose    bool

	profile Profile
	api     *client.Client
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "freightctl",
	Short:         "Filter, select and act on freight back office records",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		profile, err = loadProfile()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		flags := cmd.Flags()
		if !flags.Changed("server") && profile.Server != "" {
			serverURL = profile.Server
		}
		if !flags.Changed("token") && profile.Token != "" {
			token = profile.Token
		}
		if !flags.Changed("page-size") && profile.PageSize > 0 {
			pageSize = profile.PageSize
		}
		if verbose {
			if logger, err = zap.NewDevelopment(); err != nil {
				return err
			}
		}
		api = client.New(serverURL, token)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func defaultServer() string {
	if s := os.Getenv("FREIGHT_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func quietPeriod() time.Duration {
	if profile.DebounceMS > 0 {
		return time.Duration(profile.DebounceMS) * time.Millisecond
	}
	return 300 * time.Millisecond
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("FREIGHT_TOKEN"), "bearer token")
	rootCmd.PersistentFlags().StringVarP(&resource, "resource", "r", "consignments", "consignments | trip_sheets | parties")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 25, "rows per page")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and selection changes")

	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newBulkCmd("print", "Print the selection to an xlsx manifest"))
	rootCmd.AddCommand(newBulkCmd("exclude", "Exclude the selection from future lists"))
	rootCmd.AddCommand(newBulkCmd("delete", "Delete the selection"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
