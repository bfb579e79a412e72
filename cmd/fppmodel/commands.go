package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fpp-modeler/backend/internal/compiler"
	"github.com/fpp-modeler/backend/internal/config"
	"github.com/fpp-modeler/backend/internal/logging"
	"github.com/fpp-modeler/backend/internal/modeler"
	"github.com/fpp-modeler/backend/internal/models"
	"github.com/fpp-modeler/backend/internal/storage"
	"github.com/fpp-modeler/backend/internal/view"
	"github.com/spf13/cobra"
)

// app holds the flags shared by every command.
type app struct {
	configPath string
	projectDir string
	xmlPath    string
	jsonOut    bool
	logLevel   string
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "fppmodel",
		Short:         "Inspect and rewrite FPP models from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "system configuration file (default: $FPP_MODELER_CONFIG or ./"+configFileName+")")
	flags.StringVarP(&a.projectDir, "project", "p", "", "project directory (default: current directory)")
	flags.StringVar(&a.xmlPath, "xml", "", "load compiler output from this file instead of running the compiler")
	flags.BoolVar(&a.jsonOut, "json", false, "output as JSON")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		a.viewsCmd(),
		a.queryCmd(),
		a.renderCmd(),
		a.writeCmd(),
		a.analyzeCmd(),
	)
	return rootCmd
}

const configFileName = "FPPModeler.config.xml"

func (a *app) config() (*config.AppConfig, error) {
	path := a.configPath
	if path == "" {
		path = os.Getenv("FPP_MODELER_CONFIG")
	}
	if path == "" {
		path = configFileName
	}
	return config.LoadConfig(path, a.projectDir)
}

func (a *app) logger() *slog.Logger {
	return logging.New(a.logLevel, "text", os.Stderr)
}

// load builds a model manager and loads the model, from --xml when given and
// from the configured compiler otherwise.
func (a *app) load(ctx context.Context) (*modeler.Manager, *config.AppConfig, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	logger := a.logger()

	invoker := compiler.NewInvoker(cfg.Model, compiler.NewOSRunner(cfg.ProjectDir),
		time.Duration(cfg.Advanced.CompilerTimeout)*time.Second, logger)
	m := modeler.NewManager(invoker, logger)

	if a.xmlPath != "" {
		f, err := os.Open(a.xmlPath)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		if _, err := m.LoadModelFromXML(f); err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", a.xmlPath, err)
		}
		return m, cfg, nil
	}

	if _, err := m.LoadModel(ctx); err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

func (a *app) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) viewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List the topologies, instances, components and port types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			views := m.ViewList()
			if a.jsonOut {
				return a.writeJSON(views)
			}
			printViewList(a.out, views)
			return nil
		},
	}
}

func (a *app) queryCmd() *cobra.Command {
	var kind string
	var filterPorts bool

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Show the instances and connections of one view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			k := models.ParseViewKind(kind)
			res := m.Query(args[0], k, filterPorts)
			if res == nil {
				return fmt.Errorf("%w: %s %q", view.ErrViewNotFound, kind, args[0])
			}
			if a.jsonOut {
				return a.writeJSON(res)
			}
			printQueryResult(a.out, args[0], k, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(models.FunctionView), "view type (function, component, instance)")
	cmd.Flags().BoolVar(&filterPorts, "filter-ports", false, "function views: keep unused ports; instance views: drop them")
	return cmd
}

func (a *app) renderCmd() *cobra.Command {
	var kind, layout string
	var filterPorts bool

	cmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Print the styled graph document of one view as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			styles, err := storage.NewLocalStore(cfg.Model.ViewStyleFileFolder)
			if err != nil {
				return err
			}
			vm := view.NewManager(m, styles, view.NewLayoutGenerator(cfg.Model.AutoLayout),
				cfg.Model.DefaultStyleFilePath, a.logger())

			rendered, err := vm.Render(models.ParseViewKind(kind), args[0], filterPorts, layout)
			if err != nil {
				return err
			}
			return a.writeJSON(rendered)
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(models.FunctionView), "view type (function, component, instance)")
	cmd.Flags().StringVar(&layout, "layout", "", "auto-layout name (default: the configured default)")
	cmd.Flags().BoolVar(&filterPorts, "filter-ports", false, "see query --filter-ports")
	return cmd
}

func (a *app) writeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write [root]",
		Short: "Write the model as .fpp sources (default root: the project directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			root := cfg.ProjectDir
			if len(args) > 0 {
				root, err = filepath.Abs(args[0])
				if err != nil {
					return err
				}
			}

			files := m.Render()
			if err := m.WriteToFile(cmd.Context(), root); err != nil {
				return err
			}
			if a.jsonOut {
				paths := make([]string, len(files))
				for i, f := range files {
					paths[i] = f.Path
				}
				return a.writeJSON(map[string]interface{}{"root": root, "files": paths})
			}
			printWritten(a.out, root, files)
			return nil
		},
	}
}

func (a *app) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <analyzer>",
		Short: "Compile the project and run a configured analyzer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := m.RunAnalyzer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.writeJSON(res)
			}
			printAnalysis(a.out, res)
			return nil
		},
	}
}
