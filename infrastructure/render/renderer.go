package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dialograph/domain/core/aggregates"
)

// Default color scheme for node types
var defaultNodeColors = map[string]string{
	"personal_details": "#FF6B6B",
	"object":           "#4ECDC4",
	"person":           "#45B7D1",
	"subject":          "#FFA07A",
	"message":          "#98D8C8",
	"default":          "#95A5A6",
}

// Default color scheme for edge relations
var defaultEdgeColors = map[string]string{
	"eats":        "#E74C3C",
	"knows":       "#3498DB",
	"plays":       "#2ECC71",
	"interested":  "#F39C12",
	"famousFor":   "#9B59B6",
	"supports":    "#1ABC9C",
	"contradicts": "#E67E22",
	"elicits":     "#16A085",
	"default":     "#34495E",
}

// RenderConfig controls the HTML visualization output
type RenderConfig struct {
	Title      string
	Height     string
	Width      string
	NodeColors map[string]string
	EdgeColors map[string]string

	// Physics enables force-directed layout for interactive
	// exploration; off by default so the same snapshot always renders
	// to the same document
	Physics bool
}

// DefaultRenderConfig returns the standard visualization settings. The
// color maps are fresh copies; callers can overlay their own colors
// without touching the package defaults.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Title:      "Dialograph Visualization",
		Height:     "800px",
		Width:      "100%",
		NodeColors: copyPalette(defaultNodeColors),
		EdgeColors: copyPalette(defaultEdgeColors),
	}
}

func copyPalette(palette map[string]string) map[string]string {
	copied := make(map[string]string, len(palette))
	for key, color := range palette {
		copied[key] = color
	}
	return copied
}

// Renderer turns graph snapshots into self-contained HTML documents
// backed by vis-network. It reads only snapshot views, never live graph
// state. Color schemes can be swapped at runtime while renders are in
// flight.
type Renderer struct {
	mu   sync.RWMutex
	cfg  RenderConfig
	tmpl *template.Template
}

// NewRenderer creates a renderer. Zero-valued config fields fall back
// to the defaults. The color maps are copied, so later edits to the
// caller's maps have no effect.
func NewRenderer(cfg RenderConfig) *Renderer {
	defaults := DefaultRenderConfig()
	if cfg.Title == "" {
		cfg.Title = defaults.Title
	}
	if cfg.Height == "" {
		cfg.Height = defaults.Height
	}
	if cfg.Width == "" {
		cfg.Width = defaults.Width
	}
	if cfg.NodeColors == nil {
		cfg.NodeColors = defaults.NodeColors
	} else {
		cfg.NodeColors = copyPalette(cfg.NodeColors)
	}
	if cfg.EdgeColors == nil {
		cfg.EdgeColors = defaults.EdgeColors
	} else {
		cfg.EdgeColors = copyPalette(cfg.EdgeColors)
	}

	return &Renderer{
		cfg:  cfg,
		tmpl: template.Must(template.New("graph").Parse(pageTemplate)),
	}
}

// ApplyColors overlays the given palettes onto the renderer's color
// schemes. Published maps are never mutated in place, so concurrent
// renders see either the old scheme or the new one, never a mix.
func (r *Renderer) ApplyColors(nodeColors, edgeColors map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nextNodes := copyPalette(r.cfg.NodeColors)
	for key, color := range nodeColors {
		nextNodes[key] = color
	}
	r.cfg.NodeColors = nextNodes

	nextEdges := copyPalette(r.cfg.EdgeColors)
	for key, color := range edgeColors {
		nextEdges[key] = color
	}
	r.cfg.EdgeColors = nextEdges
}

// visNode is one node in the vis-network dataset
type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Shape string `json:"shape"`
	Color string `json:"color"`
	Title string `json:"title"`
}

// visEdge is one edge in the vis-network dataset
type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label"`
	Color  string `json:"color"`
	Arrows string `json:"arrows"`
	Title  string `json:"title"`
}

type pageData struct {
	Title   string
	Height  string
	Width   string
	Nodes   []visNode
	Edges   []visEdge
	Physics bool
}

// Render produces the HTML document for a snapshot. Nodes and edges are
// emitted in identifier order so identical snapshots yield identical
// documents. An empty snapshot renders a placeholder.
func (r *Renderer) Render(snap *aggregates.Snapshot) (string, error) {
	r.mu.RLock()
	cfg := r.cfg
	r.mu.RUnlock()

	data := pageData{
		Title:   cfg.Title,
		Height:  cfg.Height,
		Width:   cfg.Width,
		Physics: cfg.Physics,
	}

	if snap.NodeCount() == 0 {
		data.Nodes = []visNode{{
			ID:    "empty",
			Label: "Empty Graph",
			Shape: "box",
			Color: "#95A5A6",
		}}
	} else {
		nodes := make([]aggregates.NodeView, len(snap.Nodes))
		copy(nodes, snap.Nodes)
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

		for _, nv := range nodes {
			data.Nodes = append(data.Nodes, visNode{
				ID:    nv.ID,
				Label: nodeLabel(nv),
				Shape: "box",
				Color: pickColor(cfg.NodeColors, nv.Type, "#95A5A6"),
				Title: fmt.Sprintf("Type: %s\nID: %s", nv.Type, nv.ID),
			})
		}

		edges := make([]aggregates.EdgeView, len(snap.Edges))
		copy(edges, snap.Edges)
		sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

		for _, ev := range edges {
			data.Edges = append(data.Edges, visEdge{
				From:   ev.SourceID,
				To:     ev.TargetID,
				Label:  ev.Relation,
				Color:  pickColor(cfg.EdgeColors, ev.Relation, "#34495E"),
				Arrows: "to",
				Title:  fmt.Sprintf("Relation: %s\nID: %s", ev.Relation, ev.ID),
			})
		}
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render visualization: %w", err)
	}
	return sb.String(), nil
}

// RenderToFile renders and writes the document, creating parent
// directories as needed
func (r *Renderer) RenderToFile(snap *aggregates.Snapshot, filename string) error {
	html, err := r.Render(snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(filename, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write visualization: %w", err)
	}
	return nil
}

// nodeLabel picks a human-readable label: the "value" attribute, then
// "text", then the identifier
func nodeLabel(nv aggregates.NodeView) string {
	if v, ok := nv.Data["value"]; ok {
		if s, isStr := v.AsString(); isStr {
			return s
		}
	}
	if v, ok := nv.Data["text"]; ok {
		if s, isStr := v.AsString(); isStr {
			return s
		}
	}
	return nv.ID
}

func pickColor(palette map[string]string, key, fallback string) string {
	if color, ok := palette[key]; ok {
		return color
	}
	if color, ok := palette["default"]; ok {
		return color
	}
	return fallback
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
#graph {
  width: {{.Width}};
  height: {{.Height}};
  background-color: #ffffff;
  border: 1px solid #e0e0e0;
}
h1 { font-family: sans-serif; color: black; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="graph"></div>
<script>
var nodes = new vis.DataSet([
{{- range .Nodes}}
  {id: {{.ID}}, label: {{.Label}}, shape: {{.Shape}}, color: {{.Color}}, title: {{.Title}}},
{{- end}}
]);
var edges = new vis.DataSet([
{{- range .Edges}}
  {from: {{.From}}, to: {{.To}}, label: {{.Label}}, color: {{.Color}}, arrows: {{.Arrows}}, title: {{.Title}}},
{{- end}}
]);
var container = document.getElementById("graph");
var options = {
{{- if .Physics}}
  physics: {
    enabled: true,
    barnesHut: {gravitationalConstant: -20000, springLength: 200, springConstant: 0.05}
  }
{{- else}}
  layout: {
    hierarchical: {
      enabled: true,
      levelSeparation: 150,
      nodeSpacing: 200,
      treeSpacing: 200,
      direction: "UD",
      sortMethod: "directed"
    }
  },
  physics: {enabled: false},
  edges: {smooth: {enabled: true, type: "cubicBezier"}}
{{- end}}
};
var network = new vis.Network(container, {nodes: nodes, edges: edges}, options);
</script>
</body>
</html>
`
