// Package newick formats the current marginal tree of a sparsetree.Tree
// as a Newick string, per spec.md §2's component table.
package newick

import (
	"fmt"
	"strings"

	"github.com/jeromekelleher/coalescent/arg"
	"github.com/jeromekelleher/coalescent/sparsetree"
)

// Format renders t's current marginal tree as a Newick string, with
// branch lengths equal to the parent-child time difference.
func Format(t *sparsetree.Tree) string {
	var b strings.Builder
	writeSubtree(&b, t, t.Root(), t.Time(t.Root()))
	b.WriteByte(';')
	return b.String()
}

func writeSubtree(b *strings.Builder, t *sparsetree.Tree, v arg.NodeID, parentTime float64) {
	children := t.Children(v)
	if children[0] == 0 && children[1] == 0 {
		fmt.Fprintf(b, "%d:%g", v, parentTime-t.Time(v))
		return
	}

	b.WriteByte('(')
	writeSubtree(b, t, children[0], t.Time(v))
	b.WriteByte(',')
	writeSubtree(b, t, children[1], t.Time(v))
	b.WriteByte(')')
	fmt.Fprintf(b, "%d:%g", v, parentTime-t.Time(v))
}
