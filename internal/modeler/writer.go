package modeler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fpp-modeler/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	indent = "    "

	// SystemFileName holds the instances and topologies of one namespace.
	SystemFileName = "System.fpp"
)

// maxConcurrentWrites bounds the number of files written at once.
const maxConcurrentWrites = 8

// SourceFile is one rendered .fpp file, relative to the output root.
type SourceFile struct {
	Path    string
	Content string
}

// Render serializes the model to .fpp sources. Port types and components get
// one file each at <namespace>/<name>.fpp; instances and topologies of a
// namespace share <namespace>/System.fpp.
func (m *Manager) Render() []SourceFile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return renderModel(m.model)
}

// WriteToFile writes the model as .fpp sources under root. Files are written
// concurrently; every file that could not be written is reported in the
// returned error, which matches models.ErrFileWriteFailure.
func (m *Manager) WriteToFile(ctx context.Context, root string) error {
	files := m.Render()

	var (
		mu   sync.Mutex
		errs []error
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWrites)

	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f.Path))
		content := f.Content
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := writeSource(path, content); err != nil {
				mu.Lock()
				errs = append(errs, &models.FileWriteError{Path: path, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrFileWriteFailure, err)
	}

	if len(errs) > 0 {
		m.logger.Error("model write incomplete", "root", root, "failed", len(errs), "total", len(files))
		return errors.Join(errs...)
	}
	m.logger.Info("model written", "root", root, "files", len(files))
	return nil
}

func writeSource(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func renderModel(model *models.Model) []SourceFile {
	var files []SourceFile

	for _, pt := range model.PortTypes.All() {
		files = append(files, SourceFile{
			Path:    sourcePath(pt.Namespace, models.LocalName(pt.Name)+".fpp"),
			Content: RenderPortType(pt),
		})
	}
	for _, comp := range model.Components.All() {
		files = append(files, SourceFile{
			Path:    sourcePath(comp.Namespace, models.LocalName(comp.Name)+".fpp"),
			Content: RenderComponent(comp),
		})
	}

	instances := make(map[string][]*models.Instance)
	topologies := make(map[string][]*models.Topology)
	var order []string
	seen := make(map[string]bool)
	note := func(ns string) {
		if !seen[ns] {
			seen[ns] = true
			order = append(order, ns)
		}
	}
	for _, inst := range model.Instances.All() {
		note(inst.Namespace)
		instances[inst.Namespace] = append(instances[inst.Namespace], inst)
	}
	for _, topo := range model.Topologies.All() {
		note(topo.Namespace)
		topologies[topo.Namespace] = append(topologies[topo.Namespace], topo)
	}
	for _, ns := range order {
		files = append(files, SourceFile{
			Path:    sourcePath(ns, SystemFileName),
			Content: RenderSystem(ns, instances[ns], topologies[ns]),
		})
	}

	return files
}

func sourcePath(namespace, file string) string {
	if namespace == "" {
		return file
	}
	return namespace + "/" + file
}

// RenderPortType renders a port type file.
func RenderPortType(pt *models.PortType) string {
	var b strings.Builder
	writeNamespace(&b, pt.Namespace)

	fmt.Fprintf(&b, "porttype %s {\n", models.LocalName(pt.Name))
	for _, arg := range pt.Arguments {
		var props models.Props
		if arg.PassBy != "" {
			props = models.Props{{Key: "pass_by", Value: arg.PassBy}}
		}
		writeBlock(&b, 1, fmt.Sprintf("arg %s:%s", arg.Name, arg.Type), props)
	}
	b.WriteString("}\n")
	return b.String()
}

// RenderComponent renders a component file. Ports are written in
// declaration order.
func RenderComponent(comp *models.Component) string {
	var b strings.Builder
	writeNamespace(&b, comp.Namespace)

	fmt.Fprintf(&b, "component %s {\n", models.LocalName(comp.Name))
	if comp.Kind != "" {
		writeProp(&b, 1, models.KeyKind, comp.Kind)
	}
	for _, p := range comp.Props {
		if p.Key == models.KeyKind {
			continue
		}
		writeProp(&b, 1, p.Key, p.Value)
	}
	for _, port := range comp.Ports {
		writeBlock(&b, 1, fmt.Sprintf("port %s:%s", port.Name, port.Type), port.Props)
	}
	b.WriteString("}\n")
	return b.String()
}

// RenderSystem renders the system file of one namespace. Connections are
// written only when both ends name a port; half connections are skipped.
func RenderSystem(namespace string, instances []*models.Instance, topologies []*models.Topology) string {
	var b strings.Builder
	writeNamespace(&b, namespace)

	b.WriteString("system {\n")
	for _, inst := range instances {
		props := make(models.Props, 0, len(inst.Props)+1)
		if inst.BaseID != "" {
			props = append(props, models.Prop{Key: models.KeyBaseID, Value: inst.BaseID})
		}
		for _, p := range inst.Props {
			if p.Key != models.KeyBaseID {
				props = append(props, p)
			}
		}
		writeBlock(&b, 1, fmt.Sprintf("instance %s:%s", models.LocalName(inst.Name), inst.Type), props)
	}
	for _, topo := range topologies {
		fmt.Fprintf(&b, "%stopology %s {\n", indent, models.LocalName(topo.Name))
		for _, c := range topo.Connections {
			if c.From.Port == "" || c.To == nil || c.To.Port == "" {
				continue
			}
			fmt.Fprintf(&b, "%s%s -> %s\n",
				strings.Repeat(indent, 2),
				endpointRef(namespace, c.From),
				endpointRef(namespace, *c.To))
		}
		fmt.Fprintf(&b, "%s}\n", indent)
	}
	b.WriteString("}\n")
	return b.String()
}

// endpointRef writes the instance by local name when it lives in the
// topology's namespace and by qualified name otherwise.
func endpointRef(namespace string, ep models.Endpoint) string {
	ns, local := models.SplitQualified(ep.Instance)
	if ns == namespace {
		return local + "." + ep.Port
	}
	return ep.Instance + "." + ep.Port
}

func writeNamespace(b *strings.Builder, namespace string) {
	if namespace != "" {
		fmt.Fprintf(b, "namespace %s\n\n", namespace)
	}
}

// writeBlock writes header followed by a brace block of props. The braces
// are left out when no prop would be written.
func writeBlock(b *strings.Builder, depth int, header string, props models.Props) {
	pad := strings.Repeat(indent, depth)
	if !hasWritableProps(props) {
		fmt.Fprintf(b, "%s%s\n", pad, header)
		return
	}
	fmt.Fprintf(b, "%s%s {\n", pad, header)
	for _, p := range props {
		writeProp(b, depth+1, p.Key, p.Value)
	}
	fmt.Fprintf(b, "%s}\n", pad)
}

// writeProp writes one attribute line. Reserved keys and empty values are
// skipped.
func writeProp(b *strings.Builder, depth int, key, value string) {
	if models.IsReservedKey(key) || value == "" {
		return
	}
	fmt.Fprintf(b, "%s%s = %s\n", strings.Repeat(indent, depth), key, value)
}

func hasWritableProps(props models.Props) bool {
	for _, p := range props {
		if !models.IsReservedKey(p.Key) && p.Value != "" {
			return true
		}
	}
	return false
}
