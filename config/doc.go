// Package config loads podscribe configuration.
//
// Values come from a YAML file, an optional .env file and the process
// environment, later sources winning. Without an explicit path the file is
// searched as ./podscribe.yml, ./config.yml, ./config/config.yml and
// $XDG_CONFIG_HOME/podscribe/config.yml.
//
// Each key of the target struct maps to an environment variable by
// upper-casing it and replacing dots with underscores, optionally prefixed
// with PODSCRIBE_:
//
//	transcription.remote.api_key  <-  TRANSCRIPTION_REMOTE_API_KEY
//
//	var cfg app.Config
//	err := config.LoadConfig("podscribe", &cfg, config.WithConfigFile(path))
package config
