package config

// ConfigPath is the default config file, resolved against the working
// directory. It may be absent.
const ConfigPath = "config.yaml"
