// Package fbxtest builds binary FBX buffers for tests.
package fbxtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zlib"
)

const (
	signature  = "Kaydara FBX Binary  \x00"
	footerSize = 160 + 16
)

type Node struct {
	Name  string
	Props []interface{}
	Nodes []*Node
}

// N creates a node with the given properties.
func N(name string, props ...interface{}) *Node {
	return &Node{Name: name, Props: props}
}

func (n *Node) Add(children ...*Node) *Node {
	n.Nodes = append(n.Nodes, children...)
	return n
}

// P creates a Properties70 record.
func P(name, typ, typ2, flag string, values ...interface{}) *Node {
	props := []interface{}{name, typ, typ2, flag}
	return N("P", append(props, values...)...)
}

// Compressed wraps an array value so it is stored zlib deflated.
type Compressed struct {
	Value interface{}
}

// Raw is written with an explicit tag byte followed by Data.
type Raw struct {
	Tag  byte
	Data []byte
}

type encoder struct {
	buf     bytes.Buffer
	version uint32
}

func (e *encoder) wide() bool { return e.version >= 7500 }

func (e *encoder) headerField(v uint64) {
	if e.wide() {
		binary.Write(&e.buf, binary.LittleEndian, v)
	} else {
		binary.Write(&e.buf, binary.LittleEndian, uint32(v))
	}
}

func (e *encoder) patchHeaderField(at int, v uint64) {
	b := e.buf.Bytes()
	if e.wide() {
		binary.LittleEndian.PutUint64(b[at:], v)
	} else {
		binary.LittleEndian.PutUint32(b[at:], uint32(v))
	}
}

func (e *encoder) headerSize() int {
	if e.wide() {
		return 8
	}
	return 4
}

func (e *encoder) nullRecord() {
	e.buf.Write(make([]byte, e.headerSize()*3+1))
}

func (e *encoder) node(n *Node) {
	start := e.buf.Len()
	e.headerField(0)
	e.headerField(0)
	e.headerField(0)
	e.buf.WriteByte(byte(len(n.Name)))
	e.buf.WriteString(n.Name)

	propStart := e.buf.Len()
	for _, p := range n.Props {
		e.property(p)
	}
	propLen := e.buf.Len() - propStart

	if len(n.Nodes) > 0 {
		for _, c := range n.Nodes {
			e.node(c)
		}
		e.nullRecord()
	}

	e.patchHeaderField(start, uint64(e.buf.Len()))
	e.patchHeaderField(start+e.headerSize(), uint64(len(n.Props)))
	e.patchHeaderField(start+2*e.headerSize(), uint64(propLen))
}

func (e *encoder) le(v interface{}) {
	binary.Write(&e.buf, binary.LittleEndian, v)
}

func arrayTag(v interface{}) (byte, []byte) {
	var b bytes.Buffer
	switch a := v.(type) {
	case []bool:
		for _, x := range a {
			if x {
				b.WriteByte(1)
			} else {
				b.WriteByte(0)
			}
		}
		return 'b', b.Bytes()
	case []int32:
		binary.Write(&b, binary.LittleEndian, a)
		return 'i', b.Bytes()
	case []int64:
		binary.Write(&b, binary.LittleEndian, a)
		return 'l', b.Bytes()
	case []float32:
		binary.Write(&b, binary.LittleEndian, a)
		return 'f', b.Bytes()
	case []float64:
		binary.Write(&b, binary.LittleEndian, a)
		return 'd', b.Bytes()
	}
	panic(fmt.Sprintf("fbxtest: unsupported array %T", v))
}

func arrayLen(v interface{}) int {
	switch a := v.(type) {
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
	panic(fmt.Sprintf("fbxtest: unsupported array %T", v))
}

func (e *encoder) property(v interface{}) {
	switch p := v.(type) {
	case bool:
		e.buf.WriteByte('C')
		if p {
			e.buf.WriteByte(1)
		} else {
			e.buf.WriteByte(0)
		}
	case int16:
		e.buf.WriteByte('Y')
		e.le(p)
	case int32:
		e.buf.WriteByte('I')
		e.le(p)
	case int:
		e.buf.WriteByte('L')
		e.le(int64(p))
	case int64:
		e.buf.WriteByte('L')
		e.le(p)
	case float32:
		e.buf.WriteByte('F')
		e.le(math.Float32bits(p))
	case float64:
		e.buf.WriteByte('D')
		e.le(math.Float64bits(p))
	case string:
		e.buf.WriteByte('S')
		e.le(uint32(len(p)))
		e.buf.WriteString(p)
	case []byte:
		e.buf.WriteByte('R')
		e.le(uint32(len(p)))
		e.buf.Write(p)
	case Raw:
		e.buf.WriteByte(p.Tag)
		e.buf.Write(p.Data)
	case Compressed:
		tag, data := arrayTag(p.Value)
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		zw.Write(data)
		zw.Close()
		e.buf.WriteByte(tag)
		e.le(uint32(arrayLen(p.Value)))
		e.le(uint32(1))
		e.le(uint32(z.Len()))
		e.buf.Write(z.Bytes())
	default:
		tag, data := arrayTag(v)
		e.buf.WriteByte(tag)
		e.le(uint32(arrayLen(v)))
		e.le(uint32(0))
		e.le(uint32(len(data)))
		e.buf.Write(data)
	}
}

// Encode produces a complete file: header, top level nodes, the terminating
// null record and a zeroed footer.
func Encode(version uint32, nodes ...*Node) []byte {
	e := &encoder{version: version}
	e.buf.WriteString(signature)
	e.buf.Write([]byte{0x1a, 0x00})
	e.le(version)
	for _, n := range nodes {
		e.node(n)
	}
	e.nullRecord()
	e.buf.Write(make([]byte, footerSize))
	return e.buf.Bytes()
}

// Property encodes a single property the way it appears inside a node.
func Property(v interface{}) []byte {
	e := &encoder{}
	e.property(v)
	return e.buf.Bytes()
}
