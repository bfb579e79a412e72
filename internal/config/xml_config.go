// Package config provides XML-based system configuration with an optional
// per-project YAML override.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"FPPModeler"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Model holds compiler, style and layout settings consumed by the core
	Model ModelConfig `xml:"Model"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`

	// SystemDir is the directory ${System} expands to
	SystemDir string `xml:"-"`

	// ProjectDir is the directory ${Project} expands to
	ProjectDir string `xml:"-"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// ModelConfig is the configuration object the model manager consumes.
// After LoadConfig every path in it is absolute and placeholder-free.
type ModelConfig struct {
	FPPCompilerPath       string           `xml:"FPPCompilerPath" yaml:"fpp_compiler_path"`
	FPPCompilerParameters string           `xml:"FPPCompilerParameters" yaml:"fpp_compiler_parameters"`
	FPPCompilerOutputPath string           `xml:"FPPCompilerOutputPath" yaml:"fpp_compiler_output_path"`
	DefaultStyleFilePath  string           `xml:"DefaultStyleFilePath" yaml:"default_style_file_path"`
	ViewStyleFileFolder   string           `xml:"ViewStyleFileFolder" yaml:"view_style_file_folder"`
	Analyzers             []AnalyzerConfig `xml:"Analyzers>Analyzer" yaml:"analyzers"`
	AutoLayout            []LayoutConfig   `xml:"AutoLayout>Layout" yaml:"auto_layout"`
}

// AnalyzerConfig describes an external analyzer process.
type AnalyzerConfig struct {
	Name           string `xml:"Name" yaml:"name"`
	Path           string `xml:"Path" yaml:"path"`
	OutputFilePath string `xml:"OutputFilePath" yaml:"output_file_path"`
	Type           string `xml:"Type" yaml:"type"`
}

// LayoutConfig names an auto-layout algorithm and its parameters.
type LayoutConfig struct {
	Name       string      `xml:"Name" yaml:"name"`
	Default    bool        `xml:"Default" yaml:"default"`
	Parameters []Parameter `xml:"Parameters>Parameter" yaml:"-"`
	// ParameterMap is the YAML form of Parameters.
	ParameterMap map[string]string `xml:"-" yaml:"parameters"`
}

// Parameter is one layout parameter.
type Parameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ParamMap returns the parameters as a map.
func (l LayoutConfig) ParamMap() map[string]string {
	out := make(map[string]string, len(l.Parameters))
	for _, p := range l.Parameters {
		out[p.Name] = p.Value
	}
	return out
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	CompilerTimeout      int    `xml:"CompilerTimeoutSeconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "127.0.0.1",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "32M",
		},
		Model: ModelConfig{
			FPPCompilerPath:       "fpp-to-xml",
			FPPCompilerParameters: "${Project}/**/*.fpp",
			FPPCompilerOutputPath: "${Project}/.fpp-modeler/model.xml",
			DefaultStyleFilePath:  "${System}/styles/default.json",
			ViewStyleFileFolder:   "${Project}/.fpp-modeler/styles",
			AutoLayout: []LayoutConfig{
				{
					Name:    "dagre",
					Default: true,
					Parameters: []Parameter{
						{Name: "rankDir", Value: "LR"},
						{Name: "nodeSep", Value: "50"},
					},
				},
				{
					Name: "cose",
					Parameters: []Parameter{
						{Name: "animate", Value: "false"},
					},
				},
			},
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "text",
			EnableRequestLogging: true,
			CompilerTimeout:      120,
		},
	}
}

// LoadConfig loads configuration from XML file. projectDir may be empty,
// in which case the working directory is used and no override is read.
func LoadConfig(configPath, projectDir string) (*AppConfig, error) {
	systemDir := filepath.Dir(configPath)

	var config *AppConfig
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config = DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		config = &AppConfig{}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()
	if envProject := os.Getenv("FPP_PROJECT_DIR"); envProject != "" && projectDir == "" {
		projectDir = envProject
	}

	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project directory: %w", err)
		}
		projectDir = wd
	}
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	absSystem, err := filepath.Abs(systemDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve system directory: %w", err)
	}
	config.SystemDir = absSystem
	config.ProjectDir = absProject

	r := NewResolver(absSystem, absProject)

	// Resolve the system values first so override paths keep their own base.
	config.Model = r.ResolveModel(config.Model, absSystem)

	override, err := LoadProjectOverride(absProject)
	if err != nil {
		return nil, err
	}
	if override != nil {
		config.Model = config.Model.Merge(r.ResolveModel(*override, absProject))
	}

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- FPP Modeler Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if compiler := os.Getenv("FPP_COMPILER_PATH"); compiler != "" {
		c.Model.FPPCompilerPath = compiler
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Model.ViewStyleFileFolder}
	if c.Model.FPPCompilerOutputPath != "" {
		dirs = append(dirs, filepath.Dir(c.Model.FPPCompilerOutputPath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
