package graph

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

const (
	vertexLabel  = "vertex"
	edgeLabel    = "edge"
	sourceColumn = "source_vertex"
	targetColumn = "target_vertex"
)

// command is one Gremlin script plus its bindings. Bindings is nil when
// values are inlined.
type command struct {
	row      int
	script   string
	bindings map[string]any
}

// builder renders rows into Gremlin scripts against traversal source g.
type builder struct {
	g           string
	useBindings bool
}

// vertex renders g.addV('vertex') with one property step per column.
func (b builder) vertex(row int, columns []string, r dataset.Row) command {
	var sb strings.Builder
	sb.WriteString(b.g)
	sb.WriteString(".addV(")
	sb.WriteString(literal(vertexLabel))
	sb.WriteString(")")

	var bindings map[string]any
	if b.useBindings {
		bindings = make(map[string]any, 2*len(columns))
	}

	for i, col := range columns {
		val := r.Get(col).Text()
		sb.WriteString(".property(")
		if b.useBindings {
			k, v := "p"+strconv.Itoa(i)+"k", "p"+strconv.Itoa(i)+"v"
			bindings[k], bindings[v] = col, val
			sb.WriteString(k + "," + v)
		} else {
			sb.WriteString(literal(col) + "," + literal(val))
		}
		sb.WriteString(")")
	}
	return command{row: row, script: sb.String(), bindings: bindings}
}

// edge renders an edge between the vertices whose id property matches the
// row's source and target cells. ok is false when either cell is empty.
func (b builder) edge(row int, r dataset.Row) (command, bool) {
	src, dst := r.Get(sourceColumn).Text(), r.Get(targetColumn).Text()
	if src == "" || dst == "" {
		return command{}, false
	}

	has := func(v string) string {
		return "V().has(" + literal(vertexLabel) + "," + literal("id") + "," + v + ")"
	}

	if b.useBindings {
		script := b.g + "." + has("src") + ".addE(" + literal(edgeLabel) + ").to(__." + has("dst") + ")"
		return command{row: row, script: script, bindings: map[string]any{"src": src, "dst": dst}}, true
	}
	script := b.g + "." + has(literal(src)) + ".addE(" + literal(edgeLabel) + ").to(__." + has(literal(dst)) + ")"
	return command{row: row, script: script}, true
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// literal quotes s as a Gremlin single-quoted string.
func literal(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}
