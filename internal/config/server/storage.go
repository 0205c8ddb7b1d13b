package server

import "time"

// StorageServerConfig describes where tenant folders live on disk.
type StorageServerConfig struct {
	BaseDir        string `mapstructure:"base_dir"         yaml:"base_dir"`
	AppSubdir      string `mapstructure:"app_subdir"       yaml:"app_subdir"`
	FilesSubdir    string `mapstructure:"files_subdir"     yaml:"files_subdir"`
	DBFilename     string `mapstructure:"db_filename"      yaml:"db_filename"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	Timezone       string `mapstructure:"timezone"         yaml:"timezone"`
}

// Location resolves the configured timezone used for default event dates.
func (cfg StorageServerConfig) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(cfg.Timezone)
}
