package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	HTTP         HTTPConfig      `yaml:"http" mapstructure:"http"`
	Backends     BackendsConfig  `yaml:"backends" mapstructure:"backends"`
	Crawl        CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Authority    AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	LLM          LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Server       ServerConfig    `yaml:"server" mapstructure:"server"`
	Output       OutputConfig    `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound fetches
type HTTPConfig struct {
	DirectTimeout time.Duration `yaml:"direct_timeout" mapstructure:"direct_timeout"`
	ReaderTimeout time.Duration `yaml:"reader_timeout" mapstructure:"reader_timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// BackendsConfig holds the collaborator endpoints used for link discovery
type BackendsConfig struct {
	ReaderURL        string   `yaml:"reader_url" mapstructure:"reader_url"`
	FeedURL          string   `yaml:"feed_url" mapstructure:"feed_url"`
	InstantAnswerURL string   `yaml:"instant_answer_url" mapstructure:"instant_answer_url"`
	EncyclopediaAPI  string   `yaml:"encyclopedia_api" mapstructure:"encyclopedia_api"`
	EncyclopediaWiki string   `yaml:"encyclopedia_wiki" mapstructure:"encyclopedia_wiki"`
	ImageSearchURLs  []string `yaml:"image_search_urls" mapstructure:"image_search_urls"`
	ExtraBlocked     []string `yaml:"extra_blocked,omitempty" mapstructure:"extra_blocked"`
}

// CrawlConfig tunes crawl parallelism. The evidence caps themselves are fixed.
type CrawlConfig struct {
	Workers       int  `yaml:"workers" mapstructure:"workers"`
	RespectRobots bool `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// RateLimitConfig is the per-domain request budget for direct fetches
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig controls the per-run response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// AuthorityConfig lists the domains behind each quality bucket
type AuthorityConfig struct {
	HighSuffixes   []string `yaml:"high_suffixes" mapstructure:"high_suffixes"`
	HighContains   []string `yaml:"high_contains" mapstructure:"high_contains"`
	MediumContains []string `yaml:"medium_contains" mapstructure:"medium_contains"`
}

// LLMConfig configures the optional chat collaborator
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // groq, openai, anthropic, ollama or empty
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// ServerConfig configures the HTTP service
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	RunTimeout     time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			DirectTimeout: 20 * time.Second,
			ReaderTimeout: 25 * time.Second,
			UserAgent:     "TrustLens/0.1 (+https://github.com/ppiankov/trustlens)",
			MaxBodyBytes:  2_000_000,
		},
		Backends: BackendsConfig{
			ReaderURL:        "https://r.jina.ai/",
			FeedURL:          "https://news.google.com/rss/search",
			InstantAnswerURL: "https://duckduckgo.com/",
			EncyclopediaAPI:  "https://en.wikipedia.org/w/api.php",
			EncyclopediaWiki: "https://en.wikipedia.org/wiki/",
			ImageSearchURLs: []string{
				"https://www.google.com/search?tbm=isch&q=",
				"https://www.bing.com/images/search?q=",
			},
		},
		Crawl: CrawlConfig{
			Workers:       12,
			RespectRobots: false,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 4,
			BurstSize:         4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Authority: AuthorityConfig{
			HighSuffixes:   []string{".gov", ".edu"},
			HighContains:   []string{"pubmed", "nature.com"},
			MediumContains: []string{"wikipedia.org", "reuters.com", "apnews.com"},
		},
		LLM: LLMConfig{
			Timeout: 45,
		},
		Server: ServerConfig{
			Addr:       ":8000",
			RunTimeout: 5 * time.Minute,
			AllowedOrigins: []string{
				"http://localhost:8080",
				"http://127.0.0.1:8080",
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			},
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
