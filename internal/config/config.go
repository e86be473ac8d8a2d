// Package config resolves finchat settings from, in increasing priority:
// built-in defaults, an optional YAML file, the environment (a .env file
// included) and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel         = "deepseek-r1-distill-llama-70b"
	DefaultBaseURL       = "https://api.groq.com/openai/v1"
	DefaultHistoryWindow = 4
	DefaultMaxIterations = 5
)

var (
	ErrMissingAPIKey        = errors.New("config: no API key; set GROQ_API_KEY or OPENAI_API_KEY")
	ErrInvalidHistoryWindow = errors.New("config: history window must be positive")
	ErrInvalidMaxIterations = errors.New("config: max iterations must be positive")
)

// Environment variables read by Load.
const (
	EnvGroqAPIKey    = "GROQ_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvConfigFile    = "FINCHAT_CONFIG"
	EnvBaseURL       = "FINCHAT_BASE_URL"
	EnvModel         = "FINCHAT_MODEL"
	EnvStream        = "FINCHAT_STREAM"
	EnvHistoryWindow = "FINCHAT_HISTORY_WINDOW"
	EnvLogLevel      = "FINCHAT_LOG_LEVEL"
	EnvLogFormat     = "FINCHAT_LOG_FORMAT"
)

type Config struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	Stream        bool   `yaml:"stream"`
	HistoryWindow int    `yaml:"history_window"`
	MaxIterations int    `yaml:"max_iterations"`
	ShowToolCalls bool   `yaml:"show_tool_calls"`
	Markdown      bool   `yaml:"markdown"`

	Tools   ToolsConfig   `yaml:"tools"`
	Logging LoggingConfig `yaml:"logging"`

	// Path of the YAML file that was applied, if any.
	Path string `yaml:"-"`
}

// ToolsConfig switches optional tools on.
type ToolsConfig struct {
	CompanyNews bool `yaml:"company_news"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Middleware is the LLM call logging detail: minimal, standard or verbose.
	Middleware string `yaml:"middleware"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Model:         DefaultModel,
		Stream:        true,
		HistoryWindow: DefaultHistoryWindow,
		MaxIterations: DefaultMaxIterations,
		ShowToolCalls: true,
		Markdown:      true,
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "compact",
			Middleware: "minimal",
		},
	}
}

// Load builds the configuration for the given command-line arguments,
// excluding the program name. A missing .env file in the working directory
// is not an error.
func Load(args []string) (*Config, error) {
	return load(args, ".env", os.Stderr)
}

func load(args []string, dotenvPath string, usage io.Writer) (*Config, error) {
	flags := newFlagSet(usage)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	env, err := newEnvironment(dotenvPath)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	path := flags.configPath
	if path == "" {
		path, _ = env.lookup(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.applyFile(path, env); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	flags.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHistoryWindow, c.HistoryWindow)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxIterations, c.MaxIterations)
	}
	return nil
}

// applyFile decodes a YAML file over c. ${VAR} references are expanded
// before decoding and unknown keys are rejected.
func (c *Config) applyFile(path string, env environment) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	expanded := os.Expand(string(data), func(name string) string {
		v, _ := env.lookup(name)
		return v
	})

	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	c.Path = path
	return nil
}

func (c *Config) applyEnv(env environment) error {
	if v, ok := env.lookup(EnvGroqAPIKey); ok && v != "" {
		c.APIKey = v
	} else if v, ok := env.lookup(EnvOpenAIAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := env.lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := env.lookup(EnvModel); ok && v != "" {
		c.Model = v
	}
	if v, ok := env.lookup(EnvStream); ok && v != "" {
		stream, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStream, err)
		}
		c.Stream = stream
	}
	if v, ok := env.lookup(EnvHistoryWindow); ok && v != "" {
		window, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHistoryWindow, err)
		}
		c.HistoryWindow = window
	}
	if v, ok := env.lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := env.lookup(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	return nil
}

// environment layers the process environment over a .env file.
type environment struct {
	dotenv map[string]string
}

func newEnvironment(dotenvPath string) (environment, error) {
	if dotenvPath == "" {
		return environment{}, nil
	}
	values, err := godotenv.Read(dotenvPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return environment{}, nil
		}
		return environment{}, fmt.Errorf("reading %s: %w", dotenvPath, err)
	}
	return environment{dotenv: values}, nil
}

func (e environment) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e.dotenv[key]
	return v, ok
}

type flagSet struct {
	*pflag.FlagSet
	configPath    string
	model         string
	baseURL       string
	stream        bool
	historyWindow int
	maxIterations int
	showToolCalls bool
	markdown      bool
	news          bool
	logLevel      string
	logFormat     string
	logMiddleware string
}

func newFlagSet(usage io.Writer) *flagSet {
	f := &flagSet{FlagSet: pflag.NewFlagSet("finchat", pflag.ContinueOnError)}
	f.SetOutput(usage)
	f.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file (env "+EnvConfigFile+")")
	f.StringVarP(&f.model, "model", "m", "", "model name (env "+EnvModel+")")
	f.StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible API base URL (env "+EnvBaseURL+")")
	f.BoolVar(&f.stream, "stream", true, "stream answers as they are generated (env "+EnvStream+")")
	f.IntVar(&f.historyWindow, "history-window", DefaultHistoryWindow, "turns quoted in follow-up prompts (env "+EnvHistoryWindow+")")
	f.IntVar(&f.maxIterations, "max-iterations", DefaultMaxIterations, "tool-loop iterations per agent")
	f.BoolVar(&f.showToolCalls, "show-tool-calls", true, "print tool calls as they run")
	f.BoolVar(&f.markdown, "markdown", true, "ask the team to answer in Markdown")
	f.BoolVar(&f.news, "news", false, "give the financial agent the company news tool")
	f.StringVar(&f.logLevel, "log-level", "", "trace, debug, info, warn or error (env "+EnvLogLevel+")")
	f.StringVar(&f.logFormat, "log-format", "", "compact, pretty or json (env "+EnvLogFormat+")")
	f.StringVar(&f.logMiddleware, "log-llm", "", "LLM call logging: minimal, standard or verbose")
	return f
}

// apply copies the flags the user actually set onto c.
func (f *flagSet) apply(c *Config) {
	if f.Changed("model") {
		c.Model = f.model
	}
	if f.Changed("base-url") {
		c.BaseURL = f.baseURL
	}
	if f.Changed("stream") {
		c.Stream = f.stream
	}
	if f.Changed("history-window") {
		c.HistoryWindow = f.historyWindow
	}
	if f.Changed("max-iterations") {
		c.MaxIterations = f.maxIterations
	}
	if f.Changed("show-tool-calls") {
		c.ShowToolCalls = f.showToolCalls
	}
	if f.Changed("markdown") {
		c.Markdown = f.markdown
	}
	if f.Changed("news") {
		c.Tools.CompanyNews = f.news
	}
	if f.Changed("log-level") {
		c.Logging.Level = f.logLevel
	}
	if f.Changed("log-format") {
		c.Logging.Format = f.logFormat
	}
	if f.Changed("log-llm") {
		c.Logging.Middleware = f.logMiddleware
	}
}
