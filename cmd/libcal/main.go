package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/libcal/cmd/libcal/commands"
	"github.com/fivetwenty-io/libcal/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "libcal",
	Short: "LibCal Spaces API CLI",
	Long: `A command-line interface for the Springshare LibCal Spaces API.

It lists locations, categories, items, seats and zones, looks up and
cancels bookings, and makes reservations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.libcal/config.yml)")
	rootCmd.PersistentFlags().String("host", "", "LibCal host, e.g. example.libcal.com")
	rootCmd.PersistentFlags().String("client-id", "", "API application client ID")
	rootCmd.PersistentFlags().String("client-secret", "", "API application client secret")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log HTTP requests to stderr")
	rootCmd.PersistentFlags().Bool("strict", false, "reject unknown and missing fields in responses")
	rootCmd.PersistentFlags().String("cache", "", "shared cache type (memory, nats, none)")
	rootCmd.PersistentFlags().String("nats-url", "", "NATS server URL for the nats cache")
	rootCmd.PersistentFlags().Duration("cache-ttl", 0, "memoize read results for this long")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("client_id", rootCmd.PersistentFlags().Lookup("client-id"))
	_ = viper.BindPFlag("client_secret", rootCmd.PersistentFlags().Lookup("client-secret"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict"))
	_ = viper.BindPFlag("cache", rootCmd.PersistentFlags().Lookup("cache"))
	_ = viper.BindPFlag("nats_url", rootCmd.PersistentFlags().Lookup("nats-url"))
	_ = viper.BindPFlag("cache_ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewLocationsCommand())
	rootCmd.AddCommand(commands.NewCategoriesCommand())
	rootCmd.AddCommand(commands.NewCategoryCommand())
	rootCmd.AddCommand(commands.NewNicknameCommand())
	rootCmd.AddCommand(commands.NewItemsCommand())
	rootCmd.AddCommand(commands.NewItemCommand())
	rootCmd.AddCommand(commands.NewSeatsCommand())
	rootCmd.AddCommand(commands.NewSeatCommand())
	rootCmd.AddCommand(commands.NewZonesCommand())
	rootCmd.AddCommand(commands.NewZoneCommand())
	rootCmd.AddCommand(commands.NewUtilizationCommand())
	rootCmd.AddCommand(commands.NewBookingsCommand())
	rootCmd.AddCommand(commands.NewBookingCommand())
	rootCmd.AddCommand(commands.NewCancelCommand())
	rootCmd.AddCommand(commands.NewReserveCommand())
	rootCmd.AddCommand(commands.NewFormCommand())
	rootCmd.AddCommand(commands.NewQuestionCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.libcal/config.yml
		viper.AddConfigPath(filepath.Join(home, ".libcal"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// LIBCAL_HOST, LIBCAL_CLIENT_ID, LIBCAL_CLIENT_SECRET, ...
	viper.SetEnvPrefix("LIBCAL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
