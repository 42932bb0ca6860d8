package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/qjebbs/go-jsons"
)

var projectConfigNames = []string{
	appName + ".json",
	"." + appName + ".json",
}

// Init loads the configuration for workingDir and applies defaults.
func Init(workingDir string, debug bool) (*Config, error) {
	cfg, err := Load(workingDir)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Options.Debug = true
	}
	return cfg, nil
}

// Load merges the global config, the global data config and the project
// configs of workingDir, in increasing priority.
func Load(workingDir string) (*Config, error) {
	paths := []string{GlobalConfig(), GlobalConfigData()}
	for _, name := range projectConfigNames {
		paths = append(paths, filepath.Join(workingDir, name))
	}
	cfg, err := loadFromConfigPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from paths %v: %w", paths, err)
	}
	cfg.setDefaults(workingDir)
	slog.Debug("Loaded config", "paths", cfg.paths)
	return cfg, nil
}

func loadFromConfigPaths(configPaths []string) (*Config, error) {
	var configs []io.Reader
	var found []string

	for _, path := range configPaths {
		fd, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer fd.Close()

		configs = append(configs, fd)
		found = append(found, path)
	}

	cfg, err := loadFromReaders(configs)
	if err != nil {
		return nil, err
	}
	cfg.paths = found
	return cfg, nil
}

func loadFromReaders(readers []io.Reader) (*Config, error) {
	if len(readers) == 0 {
		return &Config{}, nil
	}

	merged, err := jsons.Merge(readers)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration readers: %w", err)
	}

	return LoadReader(bytes.NewReader(merged))
}

// LoadReader decodes a single config without defaults.
func LoadReader(fd io.Reader) (*Config, error) {
	data, err := io.ReadAll(fd)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}

// GlobalConfig returns the path to the main config file for the user.
func GlobalConfig() string {
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName, fmt.Sprintf("%s.json", appName))
	}

	// return the path to the main config directory
	// for windows, it should be in `%LOCALAPPDATA%/vlist/`
	// for linux and macOS, it should be in `$HOME/.config/vlist/`
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, fmt.Sprintf("%s.json", appName))
	}

	return filepath.Join(os.Getenv("HOME"), ".config", appName, fmt.Sprintf("%s.json", appName))
}

// GlobalConfigData returns the path to the config file written by the
// application itself, next to its data.
func GlobalConfigData() string {
	xdgDataHome := os.Getenv("XDG_DATA_HOME")
	if xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appName, fmt.Sprintf("%s.json", appName))
	}

	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, fmt.Sprintf("%s.json", appName))
	}

	return filepath.Join(os.Getenv("HOME"), ".local", "share", appName, fmt.Sprintf("%s.json", appName))
}
