package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/pkg/validator"
)

// StoresFile is the on-disk list of watched stores.
type StoresFile struct {
	Stores []models.StoreDefinition `yaml:"stores" toml:"stores" validate:"dive"`
}

// LoadStores reads a YAML (.yaml, .yml) or TOML (.toml) stores file.
func LoadStores(path string) ([]models.StoreDefinition, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stores file: %w", err)
	}
	return ParseStores(body, filepath.Ext(path))
}

// ParseStores decodes a stores file body according to its extension and validates it.
// A store without endpoint takes the Endpoint part of its connection string.
func ParseStores(body []byte, ext string) ([]models.StoreDefinition, error) {
	var file StoresFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(body, &file); err != nil {
			return nil, fmt.Errorf("decode yaml stores: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(body, &file); err != nil {
			return nil, fmt.Errorf("decode toml stores: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported stores file extension %q", ext)
	}

	for i := range file.Stores {
		s := &file.Stores[i]
		s.Kind = models.StoreKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
		if strings.TrimSpace(s.Endpoint) != "" || s.Connection == "" {
			continue
		}
		conn, err := models.ParseConnection(s.Connection)
		if err != nil {
			return nil, fmt.Errorf("store %q: %w", s.ID, err)
		}
		s.Endpoint = conn.Get("endpoint")
	}

	if err := validator.ValidateStruct(file); err != nil {
		return nil, fmt.Errorf("invalid stores file: %v", validator.TranslateError(err))
	}
	return file.Stores, nil
}
