package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/weaverhq/changelog-weaver/types"
)

const (
	configName = ".changelog-weaver"
	envPrefix  = "WEAVER"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single instance; it caches struct info.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// envBindings maps config keys to the bare environment variable names the
// tool has always honored, alongside the WEAVER_-prefixed forms.
var envBindings = map[string]string{
	"project.name":        "SOLUTION_NAME",
	"project.version":     "RELEASE_VERSION",
	"project.brief":       "SOFTWARE_SUMMARY",
	"project.url":         "PROJECT_URL",
	"project.query":       "QUERY",
	"project.accessToken": "ACCESS_TOKEN",
	"model.apiKey":        "GPT_API_KEY",
	"model.baseUrl":       "MODEL_BASE_URL",
	"model.name":          "MODEL",
	"output.folder":       "OUTPUT_FOLDER",
	"log.level":           "LOG_LEVEL",
}

// InitConfig reads in the .env file, config file and environment variables.
func InitConfig() {
	// Load .env first if present; it is fine for it to be missing.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		_ = viper.BindEnv(key, env, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	setConfigDefaults()

	if cfgFileFlag := viper.GetString("config"); cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %v\n", err)
		os.Exit(1)
	}

	setupLogging()
}

func setConfigDefaults() {
	viper.SetDefault("output.folder", "Releases")
	viper.SetDefault("output.html", false)
	viper.SetDefault("model.name", "gpt-4o")
	viper.SetDefault("model.requestTimeoutSeconds", 60)
	viper.SetDefault("model.maxRetries", 2)
	viper.SetDefault("log.level", "info")
}

// setupLogging configures the default slog logger from config.
func setupLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(viper.GetString("log.level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if GlobalAppConfig.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// GetConfig returns the loaded application configuration.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(config *types.AppConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
