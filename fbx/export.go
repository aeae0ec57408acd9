package fbx

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// exporter prints the merged tree in FBX ascii syntax. Merged attributes have
// no order, so keys are printed sorted.
type exporter struct {
	tabs   int
	w      *bufio.Writer
	params int
}

func (e *exporter) fillTabs(diff int) {
	for i := 0; i < e.tabs+diff; i++ {
		e.w.WriteRune('\t')
	}
}

func (e *exporter) tabsInc() { e.tabs++ }
func (e *exporter) tabsDec() { e.tabs-- }

func (e *exporter) printf(format string, args ...interface{}) {
	e.w.WriteString(fmt.Sprintf(format, args...))
}
func (e *exporter) print(s string) {
	e.w.WriteString(s)
}

func simpleValueString(v interface{}) string {
	switch v := v.(type) {
	case bool:
		if v {
			return "T"
		}
		return "F"
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	case []byte:
		return fmt.Sprintf("%q", v)
	}
	return ""
}

func (e *exporter) exportParameters(props []Property) {
	for _, p := range props {
		if e.params != 0 {
			e.print(", ")
		}
		if p.IsArray() {
			e.printf("*%d", arrayLen(p))
		} else {
			e.print(simpleValueString(p.Value))
		}
		e.params++
	}
}

func arrayLen(p Property) int {
	switch a := p.Value.(type) {
	case []bool:
		return len(a)
	case []int32:
		return len(a)
	case []int64:
		return len(a)
	case []float32:
		return len(a)
	case []float64:
		return len(a)
	}
	return 0
}

func (e *exporter) exportArray(name string, p Property) {
	e.fillTabs(0)
	e.printf("%s: *%d {\n", name, arrayLen(p))
	e.fillTabs(1)
	e.print("a: ")
	i := 0
	each := func(v interface{}) {
		if i != 0 {
			e.print(",")
		}
		e.print(simpleValueString(v))
		i++
	}
	switch a := p.Value.(type) {
	case []bool:
		for _, v := range a {
			each(v)
		}
	case []int32:
		for _, v := range a {
			each(v)
		}
	case []int64:
		for _, v := range a {
			each(v)
		}
	case []float32:
		for _, v := range a {
			each(v)
		}
	case []float64:
		for _, v := range a {
			each(v)
		}
	}
	e.print("\n")
	e.fillTabs(0)
	e.print("}\n")
}

func (e *exporter) exportNode(name string, n *RawNode) {
	if n == nil {
		return
	}
	if arr, ok := n.Array(); ok && len(n.Attributes) == 1 {
		e.exportArray(name, arr)
		return
	}

	e.params = 0
	e.fillTabs(0)
	e.printf("%s: ", name)
	e.exportParameters(n.Properties)

	keys := n.Keys()
	if len(keys) == 0 {
		e.print("\n")
		return
	}
	if e.params != 0 {
		e.print(" ")
	}
	e.print("{\n")
	e.tabsInc()
	for _, k := range keys {
		e.exportAttribute(k, n.Attributes[k])
	}
	e.tabsDec()
	e.fillTabs(0)
	e.print("}\n")
}

func (e *exporter) exportAttribute(name string, a *Attribute) {
	switch a.Kind {
	case ScalarAttr:
		if a.Scalar.IsArray() {
			e.exportArray(name, a.Scalar)
		} else {
			e.fillTabs(0)
			e.printf("%s: %s\n", name, simpleValueString(a.Scalar.Value))
		}
	case NodeAttr:
		e.exportNode(name, a.Node)
	case TypedAttr:
		e.params = 0
		e.fillTabs(0)
		e.printf("P: %q, %q, %q, %q", name, a.Typed.Type, a.Typed.Type2, a.Typed.Flag)
		for _, p := range a.Typed.Value {
			e.printf(", %s", simpleValueString(p.Value))
		}
		e.print("\n")
	case IDMapAttr:
		for _, id := range a.IDs() {
			e.exportNode(name, a.IDMap[id])
		}
	case NodeListAttr:
		for _, n := range a.Nodes {
			e.exportNode(name, n)
		}
	case ConnectionsAttr:
		for _, c := range a.Connections {
			e.fillTabs(0)
			e.printf("C: %q, %d, %d", c.Type, c.From, c.To)
			if c.HasRelationship {
				e.printf(", %q", c.Relationship)
			}
			e.print("\n")
		}
	}
}

// Export writes doc as FBX ascii text, top level sections sorted by name.
func Export(doc *Document, originalWriter io.Writer) error {
	w := bufio.NewWriter(originalWriter)
	e := exporter{w: w}

	e.printf("; FBX %d.%d.0 project file\n\n", doc.Version/1000, doc.Version%1000/100)

	names := make([]string, 0, len(doc.Nodes))
	for name := range doc.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.exportNode(name, doc.Nodes[name])
		e.print("\n")
	}
	return w.Flush()
}

func (doc *Document) Export(w io.Writer) error {
	return Export(doc, w)
}
