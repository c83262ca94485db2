package vaultgen

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the yaml file form of a Site's settings.  Everything here can
// also be set directly on the Site; the config file is just a convenience
// for the cli, where flags override whatever the file says.
type Config struct {
	ContentRoot     string   `yaml:"content_root"`
	OutputDir       string   `yaml:"output_dir"`
	PathPrefix      string   `yaml:"path_prefix"`
	CachePath       string   `yaml:"cache_path"`
	TemplateFolders []string `yaml:"template_folders"`
	DefaultTemplate string   `yaml:"default_template"`
	MinVariantWidth int      `yaml:"min_variant_width"`
	ResizeCommand   string   `yaml:"resize_command"`
}

// LoadConfig reads a yaml config file.  A missing file is not an error -
// it yields an empty config so the cli can run on flags alone.
func LoadConfig(path string) (*Config, error) {
	out := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Site creates a Site from this config.
func (c *Config) Site() *Site {
	return &Site{
		ContentRoot:     c.ContentRoot,
		OutputDir:       c.OutputDir,
		PathPrefix:      c.PathPrefix,
		CachePath:       c.CachePath,
		TemplateFolders: c.TemplateFolders,
		DefaultTemplate: c.DefaultTemplate,
		MinVariantWidth: c.MinVariantWidth,
		Resizer:         MagickResizer{Command: c.ResizeCommand},
	}
}
