package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectConfigPath returns where a new project config is written.
func ProjectConfigPath(workingDir string) string {
	return filepath.Join(workingDir, projectConfigNames[0])
}

// ProjectNeedsInitialization reports whether workingDir has no project
// config yet.
func ProjectNeedsInitialization(workingDir string) (bool, error) {
	for _, name := range projectConfigNames {
		_, err := os.Stat(filepath.Join(workingDir, name))
		if err == nil {
			return false, nil
		}
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to check project config: %w", err)
		}
	}
	return true, nil
}

// InitProject writes the effective engine and browse settings of cfg to a
// new project config.
func InitProject(cfg *Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config not loaded")
	}
	needs, err := ProjectNeedsInitialization(cfg.WorkingDir())
	if err != nil {
		return "", err
	}
	path := ProjectConfigPath(cfg.WorkingDir())
	if !needs {
		return "", fmt.Errorf("project config already exists in %s", cfg.WorkingDir())
	}

	data, err := json.MarshalIndent(Config{
		Engine: cfg.Engine,
		Browse: cfg.Browse,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal project config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to create project config: %w", err)
	}
	return path, nil
}
