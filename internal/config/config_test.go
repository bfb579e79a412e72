package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FPP_COMPILER_PATH", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("FPP_PROJECT_DIR", "")

	sysDir := t.TempDir()
	projDir := t.TempDir()
	path := filepath.Join(sysDir, "config.xml")

	cfg, err := LoadConfig(path, projDir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, "fpp-to-xml", cfg.Model.FPPCompilerPath, "bare command stays on PATH")
	assert.Equal(t, filepath.Join(projDir, "**", "*.fpp"), filepath.FromSlash(cfg.Model.FPPCompilerParameters))
	assert.Equal(t, filepath.Join(projDir, ".fpp-modeler", "model.xml"), cfg.Model.FPPCompilerOutputPath)
	assert.Equal(t, filepath.Join(sysDir, "styles", "default.json"), cfg.Model.DefaultStyleFilePath)
	assert.Equal(t, projDir, cfg.ProjectDir)
	assert.Equal(t, 8089, cfg.Server.Port)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FPP_COMPILER_PATH", "/opt/fpp/bin/fpp-to-xml")
	t.Setenv("LOG_LEVEL", "debug")

	projDir := t.TempDir()
	t.Setenv("FPP_PROJECT_DIR", projDir)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.xml"), "")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, filepath.FromSlash("/opt/fpp/bin/fpp-to-xml"), cfg.Model.FPPCompilerPath)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, projDir, cfg.ProjectDir)
}

func TestLoadConfigProjectOverride(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FPP_COMPILER_PATH", "")
	t.Setenv("LOG_LEVEL", "")

	sysDir := t.TempDir()
	projDir := t.TempDir()

	override := `
fpp_compiler_output_path: build/out.xml
view_style_file_folder: ${System}/shared-styles
analyzers:
  - name: lint
    path: ./tools/lint.sh
    output_file_path: build/lint.json
    type: json
auto_layout:
  - name: klay
    default: true
    parameters:
      direction: RIGHT
      root: ${Project}
  - name: cose
    parameters:
      animate: "true"
`
	require.NoError(t, os.WriteFile(filepath.Join(projDir, "fpp-project.yaml"), []byte(override), 0644))

	cfg, err := LoadConfig(filepath.Join(sysDir, "config.xml"), projDir)
	require.NoError(t, err)

	m := cfg.Model
	assert.Equal(t, filepath.Join(projDir, "build", "out.xml"), m.FPPCompilerOutputPath)
	assert.Equal(t, filepath.Join(sysDir, "shared-styles"), m.ViewStyleFileFolder)
	assert.Equal(t, filepath.Join(sysDir, "styles", "default.json"), m.DefaultStyleFilePath, "unset fields keep system value")

	lint, ok := m.Analyzer("lint")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(projDir, "tools", "lint.sh"), lint.Path)
	assert.Equal(t, filepath.Join(projDir, "build", "lint.json"), lint.OutputFilePath)

	require.Len(t, m.AutoLayout, 3)
	names := []string{m.AutoLayout[0].Name, m.AutoLayout[1].Name, m.AutoLayout[2].Name}
	assert.Equal(t, []string{"dagre", "cose", "klay"}, names)

	assert.False(t, m.AutoLayout[0].Default, "new default clears the old one")
	assert.Equal(t, "true", m.AutoLayout[1].ParamMap()["animate"])
	assert.True(t, m.AutoLayout[2].Default)
	assert.Equal(t, filepath.ToSlash(projDir), m.AutoLayout[2].ParamMap()["root"])
}

func TestLoadProjectOverrideMissing(t *testing.T) {
	override, err := LoadProjectOverride(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, override)
}

func TestLoadProjectOverrideInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fpp-project.yml"), []byte("analyzers: {"), 0644))

	_, err := LoadProjectOverride(dir)
	assert.Error(t, err)
}

func TestResolver(t *testing.T) {
	r := NewResolver("/sys", "/proj")

	tests := []struct {
		name string
		fn   func() string
		want string
	}{
		{"expand both", func() string { return r.Expand("${System}:${Project}") }, "/sys:/proj"},
		{"relative path", func() string { return r.ResolvePath("a/b.json", "/base") }, filepath.Join("/base", "a", "b.json")},
		{"placeholder path", func() string { return r.ResolvePath("${Project}/x", "/base") }, filepath.Join("/proj", "x")},
		{"empty path", func() string { return r.ResolvePath("", "/base") }, ""},
		{"bare command", func() string { return r.ResolveCommand("fpp-to-xml", "/base") }, "fpp-to-xml"},
		{"relative command", func() string { return r.ResolveCommand("./bin/fpp", "/base") }, filepath.Join("/base", "bin", "fpp")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.xml")
	cfg := DefaultConfig()
	cfg.Model.Analyzers = []AnalyzerConfig{{Name: "check", Path: "check.sh", Type: "text"}}
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<FPPModeler>")
	assert.Contains(t, string(data), `<Parameter name="rankDir" value="LR"></Parameter>`)
	assert.Contains(t, string(data), "<Name>check</Name>")
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Model.ViewStyleFileFolder = filepath.Join(root, "styles")
	cfg.Model.FPPCompilerOutputPath = filepath.Join(root, "out", "model.xml")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, filepath.Join(root, "styles"))
	assert.DirExists(t, filepath.Join(root, "out"))
}
