package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bizinsight-api/pkg/models"
)

// RoleConfig is the YAML form of one role's candidate table.
type RoleConfig struct {
	Required bool     `yaml:"required"`
	Aliases  []string `yaml:"aliases"`
	Keywords []string `yaml:"keywords"`
}

// SchemaConfig defines the structure of schema.yaml
type SchemaConfig struct {
	Threshold            float64               `yaml:"threshold"`
	NumericFallbackRatio float64               `yaml:"numeric_fallback_ratio"`
	NumericSampleSize    int                   `yaml:"numeric_sample_size"`
	IdentifierTokens     []string              `yaml:"identifier_tokens"`
	Roles                map[string]RoleConfig `yaml:"roles"`
}

// DefaultSchemaConfig returns the built-in alias tables.
func DefaultSchemaConfig() *SchemaConfig {
	return &SchemaConfig{
		Threshold:            0.75,
		NumericFallbackRatio: 0.8,
		NumericSampleSize:    50,
		IdentifierTokens:     []string{"id", "code", "zip", "postal", "phone"},
		Roles: map[string]RoleConfig{
			string(models.RoleDate): {
				Required: true,
				Aliases:  []string{"order date", "date", "transaction date", "invoice date", "sale date", "purchase date", "timestamp"},
				Keywords: []string{"date"},
			},
			string(models.RoleRevenue): {
				Required: true,
				Aliases:  []string{"sales", "revenue", "total sales", "sales amount", "net sales", "amount", "total revenue", "total"},
			},
			string(models.RoleProduct): {
				Aliases:  []string{"product name", "product", "item name", "item", "product line", "sku"},
				Keywords: []string{"product", "item", "sku"},
			},
			string(models.RoleRegion): {
				Aliases:  []string{"region", "territory", "sales region", "area", "market"},
				Keywords: []string{"region", "territory"},
			},
		},
	}
}

// LoadSchemaConfig reads the alias tables from path. A missing file yields the defaults;
// roles or settings absent from the file keep their default values.
func LoadSchemaConfig(path string) (*SchemaConfig, error) {
	cfg := DefaultSchemaConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read schema config: %w", err)
	}

	var file SchemaConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schema config: %w", err)
	}

	if file.Threshold != 0 {
		cfg.Threshold = file.Threshold
	}
	if file.NumericFallbackRatio != 0 {
		cfg.NumericFallbackRatio = file.NumericFallbackRatio
	}
	if file.NumericSampleSize != 0 {
		cfg.NumericSampleSize = file.NumericSampleSize
	}
	if len(file.IdentifierTokens) > 0 {
		cfg.IdentifierTokens = file.IdentifierTokens
	}
	for name, role := range file.Roles {
		key := strings.ToLower(strings.TrimSpace(name))
		base, ok := cfg.Roles[key]
		if !ok {
			return nil, fmt.Errorf("parse schema config: unknown role %q", name)
		}
		cfg.Roles[key] = mergeRole(base, role)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeRole lays a file role block over the built-in one. Omitted lists keep their
// defaults and a role required by default stays required.
func mergeRole(base, file RoleConfig) RoleConfig {
	merged := base
	merged.Required = base.Required || file.Required
	if file.Aliases != nil {
		merged.Aliases = file.Aliases
	}
	if file.Keywords != nil {
		merged.Keywords = file.Keywords
	}
	return merged
}

// Validate checks ranges and that every role has at least one alias.
func (c *SchemaConfig) Validate() error {
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("schema threshold must be in (0,1), got %v", c.Threshold)
	}
	if c.NumericFallbackRatio <= 0 || c.NumericFallbackRatio > 1 {
		return fmt.Errorf("numeric_fallback_ratio must be in (0,1], got %v", c.NumericFallbackRatio)
	}
	if c.NumericSampleSize <= 0 {
		return fmt.Errorf("numeric_sample_size must be positive")
	}
	for name, role := range c.Roles {
		if len(role.Aliases) == 0 {
			return fmt.Errorf("role %s has no aliases", name)
		}
	}
	return nil
}

// AliasTables returns the role tables in resolution order: date, revenue, product, region.
func (c *SchemaConfig) AliasTables() []models.RoleAliases {
	order := []models.Role{models.RoleDate, models.RoleRevenue, models.RoleProduct, models.RoleRegion}
	tables := make([]models.RoleAliases, 0, len(order))
	for _, role := range order {
		rc, ok := c.Roles[string(role)]
		if !ok {
			continue
		}
		tables = append(tables, models.RoleAliases{
			Role:     role,
			Aliases:  rc.Aliases,
			Keywords: rc.Keywords,
			Required: rc.Required,
		})
	}
	return tables
}
