package config

import (
	"os"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string)
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this
		// environment variable points to where the config should be loaded.  It is handled prior to
		// loading the config.
		name:  "MANABI_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) {}, // Special case, no-op
	},
	{
		name:  "MANABI_CONFIG_AUTH_TOKEN",
		desc:  "Set the LMS authentication token.  Default: None",
		apply: func(c *Config, s string) { c.Auth.Token = s },
	},
	{
		name:  "MANABI_CONFIG_API_BASE_URL",
		desc:  "Sets the base URL of the LMS REST API.  Default: http://127.0.0.1:8000/api",
		apply: func(c *Config, s string) { c.API.BaseURL = s },
	},
	{
		name:  "MANABI_CONFIG_API_MEDIA_ORIGIN",
		desc:  "Sets the origin prefixed onto relative media paths.  Default: http://127.0.0.1:8000",
		apply: func(c *Config, s string) { c.API.MediaOrigin = s },
	},
	{
		name:  "MANABI_CONFIG_PLAYER_TYPE",
		desc:  "Sets the video player type.  Should be one of `mpv` or `custom`.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Type = s },
	},
	{
		name:  "MANABI_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to a video player binary.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Path = s },
	},
	{
		name:  "MANABI_CONFIG_PLAYER_ARGS",
		desc:  "Sets additional video player arguments.  Default: None",
		apply: func(c *Config, s string) { c.Player.Args = s },
	},
	{
		name:  "MANABI_CONFIG_PLAYER_EMBED_SOCKET",
		desc:  "Sets the IPC path of the shared embedded playback host.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Player.EmbedSocket = s },
	},
	{
		name:  "MANABI_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) { c.Logging.Level = s },
	},
	{
		name:  "MANABI_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Logging.FilePath = s },
	},
}

func applyEnvVarOverrides(c *Config) {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			envVar.apply(c, value)
		}
	}
}
