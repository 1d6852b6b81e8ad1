package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"screen-timer-llm/src/countdown"
	"screen-timer-llm/src/llm"
)

const (
	FileName          = "config.json"
	EnvPrefix         = "SCREEN_TIMER"
	EnvFileEnvVar     = "SCREEN_TIMER_ENV"
	APIKeyPathEnvVar  = "SCREEN_TIMER_API_KEY_FILE"
	GeminiKeyEnvVar   = "GEMINI_API_KEY"
	OpenRouterEnvVar  = "OPENROUTER_API_KEY"
	DefaultPrompt     = "Describe what you see in this image"
	DefaultTimer      = 120
	DefaultHotkey     = "Ctrl+Alt+R"
	defaultDeadline   = 45
	defaultSettleMs   = 100
	defaultScreenshot = "screenshots"
)

type LoadOptions struct {
	// ConfigPath overrides the config.json location (default: next to the executable).
	ConfigPath         string
	APIKeyPathOverride string
}

type Config struct {
	Provider          string   `mapstructure:"provider"`
	Model             string   `mapstructure:"model"`
	APIKey            string   `mapstructure:"api_key"`
	Providers         []string `mapstructure:"providers"`
	Prompt            string   `mapstructure:"prompt"`
	TimerSeconds      int      `mapstructure:"timer_seconds"`
	SaveScreenshots   bool     `mapstructure:"save_screenshots"`
	ScreenshotDir     string   `mapstructure:"screenshot_dir"`
	IncludeCursor     bool     `mapstructure:"include_cursor"`
	EnableFileLogging bool     `mapstructure:"enable_file_logging"`
	ResetHotkey       string   `mapstructure:"reset_hotkey"`
	CopyResponse      bool     `mapstructure:"copy_response"`
	Chime             bool     `mapstructure:"chime"`
	HistoryPath       string   `mapstructure:"history_path"`
	QueryDeadlineSec  int      `mapstructure:"query_deadline_sec"`
	CaptureSettleMs   int      `mapstructure:"capture_settle_ms"`

	// Resolved at load time, not read from the file.
	Path          string `mapstructure:"-"`
	APIKeyPath    string `mapstructure:"-"`
	APIKeySource  string `mapstructure:"-"`
	CreatedConfig bool   `mapstructure:"-"`
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadDotenv loads .env next to the executable, else the file named by
// SCREEN_TIMER_ENV, without overriding variables already set. It returns the
// values read from the file.
func LoadDotenv() map[string]string {
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}
	return dotenvValues
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	dotenvValues := LoadDotenv()

	path, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	// The model default depends on the provider; normalize fills it in.
	v.SetDefault("model", "")
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	created := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeDefaultFile(path); err != nil {
			log.Printf("Could not create default config file: %v", err)
		} else {
			log.Printf("Created default config file at: %s", path)
			created = true
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}
	cfg.Path = path
	cfg.CreatedConfig = created
	normalize(&cfg, filepath.Dir(path))

	cfg.APIKeyPath = resolveAPIKeyPath(opts, dotenvValues)
	cfg.APIKey, cfg.APIKeySource = resolveAPIKey(cfg)
	if cfg.APIKey == "" {
		log.Printf("Warning: no API key configured (%s)", path)
	}
	return &cfg, nil
}

// Defaults returns the settings written to a fresh config.json.
func Defaults() map[string]any {
	return map[string]any{
		"provider":            llm.ProviderGemini,
		"model":               llm.DefaultGeminiModel,
		"api_key":             "",
		"providers":           []string{},
		"prompt":              DefaultPrompt,
		"timer_seconds":       DefaultTimer,
		"save_screenshots":    false,
		"screenshot_dir":      defaultScreenshot,
		"include_cursor":      true,
		"enable_file_logging": false,
		"reset_hotkey":        DefaultHotkey,
		"copy_response":       false,
		"chime":               false,
		"history_path":        "",
		"query_deadline_sec":  defaultDeadline,
		"capture_settle_ms":   defaultSettleMs,
	}
}

func setDefaults(v *viper.Viper) {
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
}

// writeDefaultFile uses a viper holding only defaults so environment
// overrides (API keys in particular) never reach the file.
func writeDefaultFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	d := viper.New()
	setDefaults(d)
	return d.SafeWriteConfigAs(path)
}

func normalize(cfg *Config, baseDir string) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = llm.ProviderGemini
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		switch cfg.Provider {
		case llm.ProviderOpenRouter:
			cfg.Model = llm.DefaultOpenRouterModel
		default:
			cfg.Model = llm.DefaultGeminiModel
		}
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.TimerSeconds < countdown.MinSeconds {
		log.Printf("timer_seconds %d below minimum, using %d", cfg.TimerSeconds, countdown.MinSeconds)
		cfg.TimerSeconds = countdown.MinSeconds
	}
	if cfg.QueryDeadlineSec <= 0 {
		cfg.QueryDeadlineSec = defaultDeadline
	}
	if cfg.CaptureSettleMs < 0 {
		cfg.CaptureSettleMs = defaultSettleMs
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = defaultScreenshot
	}
	if !filepath.IsAbs(cfg.ScreenshotDir) {
		cfg.ScreenshotDir = filepath.Join(baseDir, cfg.ScreenshotDir)
	}
	if cfg.HistoryPath != "" && !filepath.IsAbs(cfg.HistoryPath) {
		cfg.HistoryPath = filepath.Join(baseDir, cfg.HistoryPath)
	}
	var providers []string
	for _, p := range cfg.Providers {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			providers = append(providers, trimmed)
		}
	}
	cfg.Providers = providers
}

func resolveConfigPath(override string) (string, error) {
	if p := strings.TrimSpace(override); p != "" {
		return filepath.Abs(p)
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), FileName), nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := ""

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

// resolveAPIKey picks the key file, then api_key (file or
// SCREEN_TIMER_API_KEY), then the provider's conventional env var.
func resolveAPIKey(cfg Config) (string, string) {
	if cfg.APIKeyPath != "" {
		if data, err := os.ReadFile(cfg.APIKeyPath); err == nil {
			if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
				return fileKey, "file " + cfg.APIKeyPath
			}
		} else {
			log.Printf("API key file %s unreadable: %v", cfg.APIKeyPath, err)
		}
	}

	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, "api_key"
	}

	envVar := GeminiKeyEnvVar
	if cfg.Provider == llm.ProviderOpenRouter {
		envVar = OpenRouterEnvVar
	}
	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		return key, envVar
	}
	return "", ""
}
