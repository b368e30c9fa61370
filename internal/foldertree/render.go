package foldertree

import (
	"fmt"
	"io"
	"strings"
)

// Render prints the tree as indented lines. Collapsed folders hide their
// children; the selected folder is marked with '*'. A nil expand state
// shows everything.
func Render(w io.Writer, t *Tree, expand *ExpandState, selected string) error {
	mark := func(id string) string {
		if id == selected {
			return "*"
		}
		return " "
	}

	root := t.Root()
	if _, err := fmt.Fprintf(w, "%s %s (%d)\n", mark(root.ID), root.Name, t.Count()); err != nil {
		return err
	}

	var err error
	t.Walk(func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		open := expand == nil || expand.IsExpanded(n.ID)
		icon := "  "
		if len(n.Children) > 0 {
			icon = "▸ "
			if open {
				icon = "▾ "
			}
		}
		suffix := ""
		if n.Detached {
			suffix = " (detached)"
		}
		_, err = fmt.Fprintf(w, "%s %s%s%s%s  [%s]\n",
			mark(n.ID), strings.Repeat("  ", depth+1), icon, n.Name, suffix, n.ID)
		return open
	})
	return err
}
