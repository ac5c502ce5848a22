package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"booktracker/internal/client"
)

var (
	flagAPI     string
	flagNoColor bool

	api *client.API
)

var rootCmd = &cobra.Command{
	Use:   "booktracker",
	Short: "Track books from wishlist to finished",
	Long: `booktracker talks to the book tracker API.

The API base URL comes from --api, then BOOKTRACKER_API, then ` + client.DefaultBaseURL + `.
Run 'booktracker tui' for the interactive dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		color.NoColor = color.NoColor || flagNoColor
		api = client.NewAPI(viper.GetString("api"))
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix("BOOKTRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("api", client.DefaultBaseURL)

	rootCmd.PersistentFlags().StringVar(&flagAPI, "api", client.DefaultBaseURL, "API base URL")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	_ = viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))

	rootCmd.AddCommand(
		newDashboardCmd(),
		newAddCmd(),
		newBuyCmd(),
		newStatusCmd(),
		newFinishedCmd(),
		newAuxCmd(),
		newWatchCmd(),
		newTUICmd(),
	)
}

// ok prints a green success line.
func ok(format string, a ...any) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: %w", err)
	}
	fmt.Println(string(b))
	return nil
}
