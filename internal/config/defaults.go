package config

const (
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultExiftoolBinary  = "exiftool"
	defaultExiftoolTimeout = 60
)

func defaultExtensions() []string {
	return []string{
		".nef", ".cr3", ".psd", ".jpg", ".jpeg", ".png", ".tif", ".tiff",
		".heic", ".heif", ".dng", ".avif", ".mov", ".mp4",
	}
}

func defaultExcludes() []string {
	return []string{"received"}
}

// Default returns a Config populated with repository defaults. Root and
// destination stay empty and must come from the config file, the
// environment or flags.
func Default() Config {
	return Config{
		Scan: Scan{
			Extensions:  defaultExtensions(),
			Excludes:    defaultExcludes(),
			Checkpoints: true,
		},
		Exiftool: Exiftool{
			Binary:         defaultExiftoolBinary,
			TimeoutSeconds: defaultExiftoolTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
