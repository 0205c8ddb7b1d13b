package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			QueryLevel: "WARN",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
		Http: HttpServerConfig{
			Address:              ":8080",
			ReadHeaderTimeout:    "10s",
			CorsAllowedOrigins:   []string{"*"},
			CorsAllowCredentials: false,
			RateLimitPerMinute:   0,
			MaxRequestBytes:      512 * 1024 * 1024,
		},
		Storage: StorageServerConfig{
			BaseDir:        "./folders",
			AppSubdir:      ".app",
			FilesSubdir:    "files",
			DBFilename:     "events.sqlite",
			MaxUploadBytes: 50 * 1024 * 1024,
			Timezone:       "Local",
		},
		Registry: RegistryServerConfig{
			Type: RegistrySQLite,
			SQLite: RegistrySQLiteConfig{
				Path: "",
			},
			DSN: "",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.query_level", defaults.Log.QueryLevel)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("http.address", defaults.Http.Address)
	viper.SetDefault("http.read_header_timeout", defaults.Http.ReadHeaderTimeout)
	viper.SetDefault("http.cors_allowed_origins", defaults.Http.CorsAllowedOrigins)
	viper.SetDefault("http.cors_allow_credentials", defaults.Http.CorsAllowCredentials)
	viper.SetDefault("http.rate_limit_per_minute", defaults.Http.RateLimitPerMinute)
	viper.SetDefault("http.max_request_bytes", defaults.Http.MaxRequestBytes)

	viper.SetDefault("storage.base_dir", defaults.Storage.BaseDir)
	viper.SetDefault("storage.app_subdir", defaults.Storage.AppSubdir)
	viper.SetDefault("storage.files_subdir", defaults.Storage.FilesSubdir)
	viper.SetDefault("storage.db_filename", defaults.Storage.DBFilename)
	viper.SetDefault("storage.max_upload_bytes", defaults.Storage.MaxUploadBytes)
	viper.SetDefault("storage.timezone", defaults.Storage.Timezone)

	viper.SetDefault("registry.type", defaults.Registry.Type)
	viper.SetDefault("registry.sqlite.path", defaults.Registry.SQLite.Path)
	viper.SetDefault("registry.dsn", defaults.Registry.DSN)
}
