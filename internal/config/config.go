// Package config provides tiered settings: user-level under
// ~/.config/hunkreview/settings.json and project-level under
// <repo>/.hunkreview/settings.json. Project settings take precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hunkreview/hunkreview/internal/taxonomy"
)

const (
	configDirName  = "hunkreview"
	projectDirName = ".hunkreview"
	settingsName   = "settings.json"
)

// Settings holds the trust list and custom pattern definitions for one tier.
type Settings struct {
	// Trust globs that auto-approve matching labels (e.g. "imports:*").
	Trust []string `json:"trust" mapstructure:"trust"`

	// Custom pattern definitions, pattern ID (custom:*) to description.
	Patterns map[string]string `json:"patterns" mapstructure:"patterns"`
}

// NewSettings returns an empty settings value with non-nil collections.
func NewSettings() Settings {
	return Settings{Trust: []string{}, Patterns: map[string]string{}}
}

// DefaultTrustList is the trust list seeded for new users: patterns that
// are generally safe to auto-approve.
func DefaultTrustList() []string {
	return []string{
		"imports:*",
		"formatting:*",
		"comments:*",
		"generated:lockfile",
		"file:renamed",
		"file:moved",
	}
}

// UserPath returns the user-level settings file path.
func UserPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", configDirName, settingsName), nil
}

// ProjectPath returns the project-level settings file path.
func ProjectPath(repoRoot string) string {
	return filepath.Join(repoRoot, projectDirName, settingsName)
}

// LoadFile reads one settings file. A missing or invalid file yields empty
// settings so a broken config never blocks the tool.
func LoadFile(path string) Settings {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return NewSettings()
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return NewSettings()
	}
	if s.Trust == nil {
		s.Trust = []string{}
	}
	if s.Patterns == nil {
		s.Patterns = map[string]string{}
	}
	return s
}

// SaveFile writes a settings file, creating parent directories as needed.
func SaveFile(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Merge combines user and project settings. A non-empty project trust list
// replaces the user's entirely; project patterns override per-key.
func Merge(user, project Settings) Settings {
	merged := NewSettings()
	merged.Trust = append(merged.Trust, user.Trust...)
	if len(project.Trust) > 0 {
		merged.Trust = append([]string{}, project.Trust...)
	}
	for id, desc := range user.Patterns {
		merged.Patterns[id] = desc
	}
	for id, desc := range project.Patterns {
		merged.Patterns[id] = desc
	}
	return merged
}

// Service loads and mutates tiered settings with per-tier caching.
type Service struct {
	repoRoot string

	user    *Settings
	project *Settings
	merged  *Settings

	// userPath overrides UserPath() in tests.
	userPath string
}

// NewService creates a config service. repoRoot may be empty when the tool
// runs outside a repository; project settings are then skipped.
func NewService(repoRoot string) *Service {
	return &Service{repoRoot: repoRoot}
}

func (s *Service) resolveUserPath() (string, error) {
	if s.userPath != "" {
		return s.userPath, nil
	}
	return UserPath()
}

// User returns the cached user-level settings.
func (s *Service) User() Settings {
	if s.user == nil {
		settings := NewSettings()
		if path, err := s.resolveUserPath(); err == nil {
			settings = LoadFile(path)
		}
		s.user = &settings
	}
	return *s.user
}

// Project returns the cached project-level settings.
func (s *Service) Project() Settings {
	if s.project == nil {
		settings := NewSettings()
		if s.repoRoot != "" {
			settings = LoadFile(ProjectPath(s.repoRoot))
		}
		s.project = &settings
	}
	return *s.project
}

// Merged returns the effective settings with project overriding user.
func (s *Service) Merged() Settings {
	if s.merged == nil {
		merged := Merge(s.User(), s.Project())
		s.merged = &merged
	}
	return *s.merged
}

// Invalidate clears all cached tiers.
func (s *Service) Invalidate() {
	s.user = nil
	s.project = nil
	s.merged = nil
}

// TrustList returns the effective trust globs.
func (s *Service) TrustList() []string {
	return s.Merged().Trust
}

// CustomPatterns returns the effective custom pattern definitions.
func (s *Service) CustomPatterns() map[string]string {
	return s.Merged().Patterns
}

func (s *Service) saveUser(settings Settings) error {
	path, err := s.resolveUserPath()
	if err != nil {
		return err
	}
	if err := SaveFile(path, settings); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

func (s *Service) saveProject(settings Settings) error {
	if s.repoRoot == "" {
		return fmt.Errorf("no repository root for project-level settings")
	}
	if err := SaveFile(ProjectPath(s.repoRoot), settings); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// AddTrust appends a pattern to a tier's trust list. No-op when present.
func (s *Service) AddTrust(pattern string, projectLevel bool) error {
	settings := s.User()
	if projectLevel {
		settings = s.Project()
	}
	for _, existing := range settings.Trust {
		if existing == pattern {
			return nil
		}
	}
	settings.Trust = append(settings.Trust, pattern)
	if projectLevel {
		return s.saveProject(settings)
	}
	return s.saveUser(settings)
}

// RemoveTrust removes a pattern from a tier's trust list, reporting whether
// it was present.
func (s *Service) RemoveTrust(pattern string, projectLevel bool) (bool, error) {
	settings := s.User()
	if projectLevel {
		settings = s.Project()
	}
	for i, existing := range settings.Trust {
		if existing == pattern {
			settings.Trust = append(settings.Trust[:i], settings.Trust[i+1:]...)
			if projectLevel {
				return true, s.saveProject(settings)
			}
			return true, s.saveUser(settings)
		}
	}
	return false, nil
}

// AddCustomPattern registers a custom pattern definition, normalizing the
// ID into the custom: namespace.
func (s *Service) AddCustomPattern(id, description string, projectLevel bool) error {
	if !strings.HasPrefix(id, taxonomy.CustomPrefix) {
		id = taxonomy.CustomPrefix + id
	}
	settings := s.User()
	if projectLevel {
		settings = s.Project()
	}
	settings.Patterns[id] = description
	if projectLevel {
		return s.saveProject(settings)
	}
	return s.saveUser(settings)
}
