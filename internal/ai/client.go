package ai

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderAzure      Provider = "azure"
)

const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config describes how to reach an OpenAI-compatible model endpoint.
type Config struct {
	Provider   Provider `mapstructure:"provider"`
	BaseURL    string   `mapstructure:"base_url"`
	APIKey     string   `mapstructure:"api_key"`
	APIVersion string   `mapstructure:"api_version"`

	// Model is the default chat model. VisionModel and FastModel fall back
	// to it when empty.
	Model       string `mapstructure:"model"`
	VisionModel string `mapstructure:"vision_model"`
	FastModel   string `mapstructure:"fast_model"`

	EmbeddingModel      string `mapstructure:"embedding_model"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`

	Temperature float64 `mapstructure:"temperature"`

	MaxRetries        int           `mapstructure:"max_retries"`
	BackoffFactor     float64       `mapstructure:"backoff_factor"`
	InitialDelay      time.Duration `mapstructure:"initial_delay"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Model is a chat model together with the name it was created with and the
// call options every request to it carries.
type Model struct {
	llms.Model
	Name    string
	Options []llms.CallOption
}

// Models bundles the chat models used by the pipelines and the client used
// for embeddings.
type Models struct {
	Default Model
	// Vision is a strong multimodal model used where the image matters most.
	Vision Model
	// Fast is a cheaper model used for verification steps.
	Fast Model

	Embeddings *openai.LLM
}

// NewModels creates every model described by cfg. All models share one HTTP
// client and one throttle, since the provider limits requests per key.
func NewModels(cfg Config) (*Models, error) {
	client := NewHTTPClient(cfg)
	throttle := NewThrottle(cfg.RequestsPerSecond, cfg.RequestsPerMinute)
	options := []llms.CallOption{llms.WithTemperature(cfg.Temperature)}

	build := func(name string) (Model, error) {
		if name == "" {
			name = cfg.Model
		}
		llm, err := NewLLM(cfg, name, client)
		if err != nil {
			return Model{}, err
		}
		return Model{Model: Throttled(llm, throttle), Name: name, Options: options}, nil
	}

	def, err := build(cfg.Model)
	if err != nil {
		return nil, err
	}

	vision, err := build(cfg.VisionModel)
	if err != nil {
		return nil, err
	}

	fast, err := build(cfg.FastModel)
	if err != nil {
		return nil, err
	}

	embeddings, err := NewLLM(cfg, cfg.Model, client)
	if err != nil {
		return nil, err
	}

	return &Models{
		Default:    def,
		Vision:     vision,
		Fast:       fast,
		Embeddings: embeddings,
	}, nil
}

// NewLLM creates a langchaingo OpenAI client for model.
func NewLLM(cfg Config, model string, client *http.Client) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithHTTPClient(client),
	}

	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
	case ProviderOpenRouter:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOpenRouterBaseURL
		}
		opts = append(opts, openai.WithBaseURL(baseURL))
	case ProviderAzure:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("azure provider requires a base url")
		}
		opts = append(opts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithBaseURL(cfg.BaseURL),
		)
		if cfg.APIVersion != "" {
			opts = append(opts, openai.WithAPIVersion(cfg.APIVersion))
		}
	default:
		return nil, fmt.Errorf("unknown llm provider: %v", cfg.Provider)
	}

	if cfg.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.EmbeddingModel))
	}
	if cfg.EmbeddingDimensions > 0 {
		opts = append(opts, openai.WithEmbeddingDimensions(cfg.EmbeddingDimensions))
	}

	return openai.New(opts...)
}

// NewHTTPClient returns an HTTP client that retries throttled and failed
// requests with exponential backoff. Once retries are exhausted the last
// response is passed through untouched so callers still see its status code.
func NewHTTPClient(cfg Config) *http.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = cfg.MaxRetries
	if cfg.InitialDelay > 0 {
		client.RetryWaitMin = cfg.InitialDelay
	}
	client.RetryWaitMax = 30 * time.Second

	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 2
	}
	client.Backoff = exponentialBackoff(factor)
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	standard := client.StandardClient()
	if cfg.Timeout > 0 {
		standard.Timeout = cfg.Timeout
	}

	return standard
}

// exponentialBackoff waits min * factor^attempt, capped at max. A
// Retry-After header on 429 and 503 responses takes precedence.
func exponentialBackoff(factor float64) retryablehttp.Backoff {
	return func(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
		if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
			if s := resp.Header.Get("Retry-After"); s != "" {
				if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
					return time.Duration(seconds) * time.Second
				}
			}
		}

		wait := time.Duration(float64(min) * math.Pow(factor, float64(attempt)))
		if wait <= 0 || wait > max {
			wait = max
		}

		return wait
	}
}
