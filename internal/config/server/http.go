package server

type HttpServerConfig struct {
	Address              string   `mapstructure:"address"                yaml:"address"`
	ReadHeaderTimeout    string   `mapstructure:"read_header_timeout"    yaml:"read_header_timeout"`
	CorsAllowedOrigins   []string `mapstructure:"cors_allowed_origins"   yaml:"cors_allowed_origins"`
	CorsAllowCredentials bool     `mapstructure:"cors_allow_credentials" yaml:"cors_allow_credentials"`
	// Requests per minute and client address; 0 disables the limiter.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	// Upper bound for a whole request body, across all multipart parts.
	MaxRequestBytes int64 `mapstructure:"max_request_bytes" yaml:"max_request_bytes"`
}
