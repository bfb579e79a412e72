package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/fpp-modeler/backend/internal/compiler"
	"github.com/fpp-modeler/backend/internal/modeler"
	"github.com/fpp-modeler/backend/internal/models"
)

func heading(w io.Writer, title string, n int) {
	fmt.Fprintf(w, "%s %s\n", color.CyanString(title), color.HiBlackString("(%d)", n))
}

func printViewList(w io.Writer, views *models.ViewList) {
	sections := []struct {
		title string
		names []string
	}{
		{"Topologies", views.Topologies},
		{"Instances", views.Instances},
		{"Components", views.Components},
		{"Port types", views.PortTypes},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading(w, s.title, len(s.names))
		for _, name := range s.names {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
}

func printQueryResult(w io.Writer, name string, kind models.ViewKind, res *models.QueryResult) {
	fmt.Fprintf(w, "%s %s\n\n", color.CyanString("%s view", kind), name)

	if len(res.Components) > 0 {
		heading(w, "Components", len(res.Components))
		for _, comp := range res.Components {
			fmt.Fprintf(w, "  %s %s\n", comp.Name, color.HiBlackString(comp.Kind))
			for _, p := range comp.Ports {
				fmt.Fprintf(w, "    %s:%s\n", p.Name, p.Type)
			}
		}
	}

	if len(res.Instances) > 0 {
		heading(w, "Instances", len(res.Instances))
		for _, inst := range res.Instances {
			fmt.Fprintf(w, "  %s:%s", inst.Name, inst.Type)
			if inst.BaseID != "" {
				fmt.Fprintf(w, " %s", color.HiBlackString("base_id=%s", inst.BaseID))
			}
			fmt.Fprintln(w)
			for _, p := range inst.Ports {
				fmt.Fprintf(w, "    %s:%s\n", p.Name, p.Type)
			}
		}
	}

	if len(res.Connections) > 0 {
		fmt.Fprintln(w)
		heading(w, "Connections", len(res.Connections))
		for _, c := range res.Connections {
			if c.IsHalf() {
				fmt.Fprintf(w, "  %s %s\n", c.From.Instance, color.YellowString("(unconnected)"))
				continue
			}
			fmt.Fprintf(w, "  %s.%s -> %s.%s\n", c.From.Instance, c.From.Port, c.To.Instance, c.To.Port)
		}
	}
}

func printWritten(w io.Writer, root string, files []modeler.SourceFile) {
	fmt.Fprintf(w, "%s %d files to %s\n", color.GreenString("✓ wrote"), len(files), root)
	for _, f := range files {
		fmt.Fprintf(w, "  %s\n", f.Path)
	}
}

func printAnalysis(w io.Writer, res *compiler.Analysis) {
	title := res.Name
	if res.Type != "" {
		title += " " + color.HiBlackString("[%s]", res.Type)
	}
	fmt.Fprintf(w, "%s %s\n", color.CyanString("Analyzer"), title)
	if res.OutputFile != "" {
		fmt.Fprintf(w, "%s\n", color.HiBlackString("output: %s", res.OutputFile))
	}
	fmt.Fprintln(w, strings.TrimRight(res.Output, "\n"))
}
