package server

type LogServerConfig struct {
	Level      string                  `mapstructure:"level"       yaml:"level"`
	QueryLevel string                  `mapstructure:"query_level" yaml:"query_level"`
	TimeFormat string                  `mapstructure:"time_format" yaml:"time_format"`
	File       string                  `mapstructure:"file"        yaml:"file"`
	NoColor    bool                    `mapstructure:"no_color"    yaml:"no_color"`
	JSON       bool                    `mapstructure:"json"        yaml:"json"`
	NoTerminal bool                    `mapstructure:"no_terminal" yaml:"no_terminal"`
	Rotation   LogServerRotationConfig `mapstructure:"rotation"    yaml:"rotation"`
}

type LogServerRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"     yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"      yaml:"max_age"`
	Compress   bool `mapstructure:"compress"     yaml:"compress"`
}

// DatabaseLevel returns the level used for SQL query logging of the registry
// and folder databases. It falls back to Level when QueryLevel is unset.
func (cfg LogServerConfig) DatabaseLevel() string {
	if cfg.QueryLevel != "" {
		return cfg.QueryLevel
	}
	return cfg.Level
}
