package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	configDir string
	clearData bool
)

var rootCmd = &cobra.Command{
	Use:   "campaign-portal",
	Short: "Campaign Portal",
	Long:  `Donation and campaign management portal: campaign pages, donations and expense records.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads config.yml from path. Environment variables prefixed with
// PORTAL_ override file values, e.g. PORTAL_PAYMENT_STRIPE_SECRET_KEY. A .env
// file in the working directory is loaded first when present.
func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	bindEnvKeys(v)

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// envKeys are the settings usually provided only through the environment.
// AutomaticEnv alone does not reach keys missing from the file on Unmarshal.
var envKeys = []string{
	"http_server.port",
	"http_server.base_url",
	"http_server.environment",
	"backend.mode",
	"backend.base_url",
	"database.source",
	"security.session_secret",
	"security.secure_cookies",
	"oauth.google_client_id",
	"oauth.google_client_secret",
	"oauth.google_redirect_url",
	"payment.stripe_secret_key",
	"payment.stripe_publishable_key",
	"payment.webhook_secret",
	"payment.api_url",
	"payment.currency",
	"observability.tracing.otlp_endpoint",
	"observability.logging.level",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", ".", "directory containing config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
