package typecheck

import (
	"fmt"
	"sort"
	"strings"
)

// Apropos renders a plain-text description of the type: its lineage, its
// documentation, and the functions and variables of each class on the
// inheritance chain. Interactive sessions print it for `Type.help()`-style
// queries.
func (t *Type) Apropos() string {
	var b strings.Builder

	b.WriteString("class: ")
	b.WriteString(t.Name())
	for p := t.Parent; p != nil; p = p.Parent {
		b.WriteString(" -> ")
		b.WriteString(p.Name())
	}
	b.WriteString("\n")
	if t.Doc != "" {
		fmt.Fprintf(&b, "  %s\n", t.Doc)
	}

	target := t
	if t.IsArray() {
		target = t.env.TArray
	}
	for p := target; p != nil; p = p.Parent {
		if p.Info == nil {
			continue
		}
		aproposFuncs(&b, p)
		aproposVars(&b, p)
	}

	if len(t.Examples) > 0 {
		b.WriteString("\nexamples:\n")
		for _, ex := range t.Examples {
			fmt.Fprintf(&b, "  %s\n", ex)
		}
	}
	return b.String()
}

func aproposFuncs(b *strings.Builder, t *Type) {
	funcs := t.Info.GetFuncs(false)
	if len(funcs) == 0 {
		return
	}
	lines := make([]string, 0, len(funcs))
	for _, f := range funcs {
		for g := f; g != nil; g = g.Next {
			line := "  " + g.Signature(false, true)
			if g.Doc != "" {
				line += "\n    " + g.Doc
			}
			lines = append(lines, line)
		}
	}
	sort.Strings(lines)
	fmt.Fprintf(b, "\nfunctions of %s:\n", t.Name())
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func aproposVars(b *strings.Builder, t *Type) {
	var lines []string
	for _, v := range t.Info.GetValues() {
		if v.FuncRef != nil {
			continue
		}
		line := fmt.Sprintf("  %s %s", v.Type.Name(), v.Name)
		if v.IsStatic {
			line = "  static" + line[1:]
		}
		if v.Doc != "" {
			line += "\n    " + v.Doc
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	sort.Strings(lines)
	fmt.Fprintf(b, "\nvariables of %s:\n", t.Name())
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
}
