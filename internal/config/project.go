package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFileNames are the per-project override files, in lookup order.
var ProjectFileNames = []string{"fpp-project.yaml", "fpp-project.yml"}

// Placeholder tokens expanded in paths and parameters.
const (
	SystemPlaceholder  = "${System}"
	ProjectPlaceholder = "${Project}"
)

// Resolver expands placeholders and makes paths absolute.
type Resolver struct {
	replacer *strings.Replacer
}

// NewResolver creates a resolver for the given system and project roots.
func NewResolver(systemDir, projectDir string) *Resolver {
	return &Resolver{
		replacer: strings.NewReplacer(
			SystemPlaceholder, filepath.ToSlash(systemDir),
			ProjectPlaceholder, filepath.ToSlash(projectDir),
		),
	}
}

// Expand substitutes placeholder tokens.
func (r *Resolver) Expand(s string) string {
	return r.replacer.Replace(s)
}

// ResolvePath expands placeholders and joins relative paths onto base.
func (r *Resolver) ResolvePath(p, base string) string {
	p = r.Expand(p)
	if p == "" {
		return ""
	}
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p)
}

// ResolveCommand is ResolvePath for executables: a bare command name is
// left alone so it is looked up on PATH.
func (r *Resolver) ResolveCommand(p, base string) string {
	p = r.Expand(p)
	if p == "" || !strings.ContainsAny(p, `/\`) {
		return p
	}
	return r.ResolvePath(p, base)
}

// ResolveModel returns a copy of m with every path and parameter resolved
// against base.
func (r *Resolver) ResolveModel(m ModelConfig, base string) ModelConfig {
	out := m
	out.FPPCompilerPath = r.ResolveCommand(m.FPPCompilerPath, base)
	out.FPPCompilerParameters = r.Expand(m.FPPCompilerParameters)
	out.FPPCompilerOutputPath = r.ResolvePath(m.FPPCompilerOutputPath, base)
	out.DefaultStyleFilePath = r.ResolvePath(m.DefaultStyleFilePath, base)
	out.ViewStyleFileFolder = r.ResolvePath(m.ViewStyleFileFolder, base)

	out.Analyzers = make([]AnalyzerConfig, len(m.Analyzers))
	for i, a := range m.Analyzers {
		a.Path = r.ResolveCommand(a.Path, base)
		a.OutputFilePath = r.ResolvePath(a.OutputFilePath, base)
		out.Analyzers[i] = a
	}

	out.AutoLayout = make([]LayoutConfig, len(m.AutoLayout))
	for i, l := range m.AutoLayout {
		params := l.ParamMap()
		for k, v := range l.ParameterMap {
			params[k] = v
		}
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		resolved := LayoutConfig{Name: l.Name, Default: l.Default}
		for _, k := range keys {
			resolved.Parameters = append(resolved.Parameters, Parameter{Name: k, Value: r.Expand(params[k])})
		}
		out.AutoLayout[i] = resolved
	}

	return out
}

// Merge overlays override onto m. Non-empty scalar fields replace; analyzers
// and layouts replace entries with the same name and append new ones.
func (m ModelConfig) Merge(override ModelConfig) ModelConfig {
	out := m
	if override.FPPCompilerPath != "" {
		out.FPPCompilerPath = override.FPPCompilerPath
	}
	if override.FPPCompilerParameters != "" {
		out.FPPCompilerParameters = override.FPPCompilerParameters
	}
	if override.FPPCompilerOutputPath != "" {
		out.FPPCompilerOutputPath = override.FPPCompilerOutputPath
	}
	if override.DefaultStyleFilePath != "" {
		out.DefaultStyleFilePath = override.DefaultStyleFilePath
	}
	if override.ViewStyleFileFolder != "" {
		out.ViewStyleFileFolder = override.ViewStyleFileFolder
	}

	out.Analyzers = append([]AnalyzerConfig(nil), m.Analyzers...)
	for _, a := range override.Analyzers {
		replaced := false
		for i := range out.Analyzers {
			if out.Analyzers[i].Name == a.Name {
				out.Analyzers[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			out.Analyzers = append(out.Analyzers, a)
		}
	}

	out.AutoLayout = append([]LayoutConfig(nil), m.AutoLayout...)
	for _, l := range override.AutoLayout {
		if l.Default {
			for i := range out.AutoLayout {
				out.AutoLayout[i].Default = false
			}
		}
		replaced := false
		for i := range out.AutoLayout {
			if out.AutoLayout[i].Name == l.Name {
				out.AutoLayout[i] = l
				replaced = true
				break
			}
		}
		if !replaced {
			out.AutoLayout = append(out.AutoLayout, l)
		}
	}

	return out
}

// Analyzer returns the analyzer with the given name.
func (m ModelConfig) Analyzer(name string) (AnalyzerConfig, bool) {
	for _, a := range m.Analyzers {
		if a.Name == name {
			return a, true
		}
	}
	return AnalyzerConfig{}, false
}

// LoadProjectOverride reads the project override file from projectDir.
// It returns nil when the project has no override file.
func LoadProjectOverride(projectDir string) (*ModelConfig, error) {
	for _, name := range ProjectFileNames {
		path := filepath.Join(projectDir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read project config: %w", err)
		}

		var override ModelConfig
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to parse project config %s: %w", path, err)
		}
		return &override, nil
	}
	return nil, nil
}
