package main

import (
	"os"
	"path/filepath"
)

const (
	envConfigPath = "LINKEDIN_POST_CONFIG"
	envDebug      = "LINKEDIN_POST_DEBUG"

	configDirName  = "linkedin-post"
	configFileName = "credentials.env"
)

// getConfig returns value with priority: flag > env > default
func getConfig(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnv(envKey, defaultValue)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// defaultConfigPath places the credential file under the user config
// directory, falling back to the working directory when none is known.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(dir, configDirName, configFileName)
}

func resolveConfigPath(flagValue string) string {
	return getConfig(flagValue, envConfigPath, defaultConfigPath())
}

func debugFromEnv() bool {
	switch getEnv(envDebug, "") {
	case "1", "true", "TRUE", "yes":
		return true
	}
	return false
}
