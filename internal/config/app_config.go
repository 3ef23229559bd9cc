package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/snapshot/internal/utils"
)

const defaultTokenizerModel = "gpt-4o"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds snapshot defaults read from configuration files.
type ApplicationConfiguration struct {
	Output  string             `mapstructure:"output"`
	Exclude []string           `mapstructure:"exclude"`
	Copy    *bool              `mapstructure:"copy"`
	Tokens  TokenConfiguration `mapstructure:"tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from the global file and then the local one.
// Values present in the local file override the global ones.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	if validationErr := merged.Validate(); validationErr != nil {
		return ApplicationConfiguration{}, validationErr
	}
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName)
}

// loadConfigurationFromPath reads a YAML configuration file. Missing files are only
// an error when the path was requested explicitly.
func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config.clone()
	if override.Output != "" {
		result.Output = override.Output
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, override.Exclude...)
	}
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config ApplicationConfiguration) clone() ApplicationConfiguration {
	result := config
	if config.Exclude != nil {
		result.Exclude = append([]string{}, config.Exclude...)
	}
	result.Copy = cloneBool(config.Copy)
	result.Tokens.Enabled = cloneBool(config.Tokens.Enabled)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// Validate rejects output names that would escape the project root.
func (config ApplicationConfiguration) Validate() error {
	if config.Output == "" {
		return nil
	}
	if filepath.IsAbs(config.Output) || strings.ContainsAny(config.Output, `/\`) {
		return fmt.Errorf("output %q must be a file name inside the project root", config.Output)
	}
	return nil
}

// OutputFileName returns the configured artifact name or the default one.
func (config ApplicationConfiguration) OutputFileName() string {
	if config.Output == "" {
		return utils.DefaultOutputFileName
	}
	return config.Output
}

// CopyEnabled reports whether the artifact should be copied to the clipboard.
func (config ApplicationConfiguration) CopyEnabled() bool {
	return config.Copy != nil && *config.Copy
}

// TokensEnabled reports whether the artifact's token count should be reported.
func (config ApplicationConfiguration) TokensEnabled() bool {
	return config.Tokens.Enabled != nil && *config.Tokens.Enabled
}

// TokenModel returns the configured tokenizer model or the default one.
func (config ApplicationConfiguration) TokenModel() string {
	if config.Tokens.Model == "" {
		return defaultTokenizerModel
	}
	return config.Tokens.Model
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
