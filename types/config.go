package types

// AppConfig represents the complete application configuration.
type AppConfig struct {
	Verbose bool          `mapstructure:"verbose"`
	Config  string        `mapstructure:"config"`
	Project ProjectConfig `mapstructure:"project" validate:"required"`
	Model   ModelConfig   `mapstructure:"model" validate:"omitempty"`
	Output  OutputConfig  `mapstructure:"output" validate:"required"`
}

// ProjectConfig identifies the release and the tracking platform project the
// work items are fetched from. The platform is derived from URL.
type ProjectConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Brief       string `mapstructure:"brief"`
	URL         string `mapstructure:"url" validate:"required,url"`
	Query       string `mapstructure:"query"`
	AccessToken string `mapstructure:"accessToken" validate:"required"`
}

// ModelConfig holds configuration for the summarization model. An empty
// APIKey disables summarization entirely; the changelog is still produced.
type ModelConfig struct {
	APIKey  string `mapstructure:"apiKey"`
	BaseURL string `mapstructure:"baseUrl" validate:"omitempty,url"`
	Name    string `mapstructure:"name"`
	// RequestTimeoutSeconds controls the HTTP client timeout for model calls.
	RequestTimeoutSeconds int `mapstructure:"requestTimeoutSeconds" validate:"omitempty,min=5,max=600"`
	// MaxRetries controls automatic retries on recoverable errors (429, 5xx).
	MaxRetries int `mapstructure:"maxRetries" validate:"omitempty,min=0,max=5"`
	Debug      bool `mapstructure:"debug"`
}

// OutputConfig controls where and how the changelog is written.
type OutputConfig struct {
	Folder string `mapstructure:"folder" validate:"required"`
	HTML   bool   `mapstructure:"html"`
	// TypesFile optionally points at a YAML file overriding work item type
	// icons and colors reported by the platform.
	TypesFile string `mapstructure:"typesFile"`
}
