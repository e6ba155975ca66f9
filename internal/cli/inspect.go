package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
)

// newInspectCmd creates the inspect command.
func newInspectCmd() *cobra.Command {
	var (
		output string
		asSVG  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <parent-id>",
		Short: "Show the parent → group → child derivation graph",
		Long: `Show how child cards derive from a parent's rectangle groups.

The graph has the parent at the top, one node per group key, and one node
per derived child. Retired children are drawn dashed. Output is Graphviz
DOT by default, or a rendered SVG with --svg.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], output, asSVG)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&asSVG, "svg", false, "render SVG instead of printing DOT")

	return cmd
}

func runInspect(ctx context.Context, parentID, output string, asSVG bool) error {
	cfg, err := loadConfig(configPathFromContext(ctx))
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	def, ok, err := st.ParentDefinition(ctx, parentID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrCodeParentNotFound, "no occlusions stored for %s", parentID)
	}

	children, err := st.Children(ctx, parentID)
	if err != nil {
		return err
	}

	dot := derivationDOT(parentID, def.Clamped(), children)

	var out []byte
	if asSVG {
		out, err = renderDOTSVG(ctx, dot)
		if err != nil {
			return err
		}
	} else {
		out = []byte(dot)
	}

	if output == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return err
	}
	printFile(output)
	return nil
}

// derivationDOT builds the derivation graph in Graphviz DOT format: parent →
// group keys → child ids, with rectangle counts on the group nodes and
// retired children dashed.
func derivationDOT(parentID string, def card.ParentDefinition, children []card.ChildRecord) string {
	rectCount := map[string]int{}
	for _, r := range def.Rects {
		rectCount[r.GroupKey]++
	}

	var buf bytes.Buffer
	buf.WriteString("digraph derivation {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightyellow];\n", parentID, parentID+"\n"+def.ImageRef)

	for _, key := range def.GroupKeys() {
		node := "group:" + key
		label := fmt.Sprintf("group %s\n%d rect(s)", key, rectCount[key])
		fmt.Fprintf(&buf, "  %q [label=%q];\n", node, label)
		fmt.Fprintf(&buf, "  %q -> %q;\n", parentID, node)
	}

	sorted := append([]card.ChildRecord(nil), children...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	buf.WriteString("\n")
	for _, c := range sorted {
		label := c.ID
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if c.Retired {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", c.ID, strings.Join(attrs, ", "))
		if !c.Retired {
			fmt.Fprintf(&buf, "  %q -> %q;\n", "group:"+c.GroupKey, c.ID)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", parentID, c.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// renderDOTSVG renders a DOT graph to SVG using Graphviz.
func renderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
