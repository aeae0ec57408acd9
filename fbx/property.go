package fbx

import (
	"bytes"
	"fmt"
	"io/ioutil"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"

	"github.com/mogaika/fbxloader/utils"
)

var (
	ErrUnknownPropertyType = errors.New("unknown property type")
	ErrInflate             = errors.New("array inflate failed")
)

type PropertyType byte

const (
	PropBool    PropertyType = 'C'
	PropInt16   PropertyType = 'Y'
	PropInt32   PropertyType = 'I'
	PropInt64   PropertyType = 'L'
	PropFloat32 PropertyType = 'F'
	PropFloat64 PropertyType = 'D'
	PropRaw     PropertyType = 'R'
	PropString  PropertyType = 'S'

	PropBoolArray    PropertyType = 'b'
	PropByteArray    PropertyType = 'c'
	PropInt32Array   PropertyType = 'i'
	PropInt64Array   PropertyType = 'l'
	PropFloat32Array PropertyType = 'f'
	PropFloat64Array PropertyType = 'd'
)

func (t PropertyType) String() string {
	return string(rune(t))
}

// width of one array element in the stored layout
func (t PropertyType) elementSize() int {
	switch t {
	case PropBoolArray, PropByteArray:
		return 1
	case PropInt32Array, PropFloat32Array:
		return 4
	case PropInt64Array, PropFloat64Array:
		return 8
	}
	return 0
}

// Property is a single tagged value attached to a node.
// Value holds bool, int16, int32, int64, float32, float64, []byte, string,
// []bool, []int32, []int64, []float32 or []float64 depending on Type.
type Property struct {
	Type  PropertyType
	Value interface{}
}

func (p Property) String() string {
	return fmt.Sprintf("%v:%v", p.Type, p.Value)
}

func (p Property) IsArray() bool {
	return p.Type.elementSize() != 0
}

// IsNumeric reports whether the property is an integer or float scalar.
func (p Property) IsNumeric() bool {
	switch p.Type {
	case PropInt16, PropInt32, PropInt64, PropFloat32, PropFloat64:
		return true
	}
	return false
}

func (p Property) Int64() (int64, bool) {
	switch v := p.Value.(type) {
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (p Property) Float64() (float64, bool) {
	switch v := p.Value.(type) {
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func (p Property) Text() (string, bool) {
	switch v := p.Value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func (p Property) Float64s() ([]float64, bool) {
	switch v := p.Value.(type) {
	case []float64:
		return v, true
	case []float32:
		r := make([]float64, len(v))
		for i := range v {
			r[i] = float64(v[i])
		}
		return r, true
	case []int32:
		r := make([]float64, len(v))
		for i := range v {
			r[i] = float64(v[i])
		}
		return r, true
	case []int64:
		r := make([]float64, len(v))
		for i := range v {
			r[i] = float64(v[i])
		}
		return r, true
	}
	return nil, false
}

func (p Property) Int64s() ([]int64, bool) {
	switch v := p.Value.(type) {
	case []int64:
		return v, true
	case []int32:
		r := make([]int64, len(v))
		for i := range v {
			r[i] = int64(v[i])
		}
		return r, true
	}
	return nil, false
}

func readProperty(c *utils.Cursor, enc encoding.Encoding) (Property, error) {
	start := c.Pos()
	tag, err := c.ReadU8()
	if err != nil {
		return Property{}, err
	}
	t := PropertyType(tag)
	p := Property{Type: t}

	switch t {
	case PropBool:
		p.Value, err = c.ReadBool()
	case PropInt16:
		p.Value, err = c.ReadLI16()
	case PropInt32:
		p.Value, err = c.ReadLI32()
	case PropInt64:
		p.Value, err = c.ReadLI64()
	case PropFloat32:
		p.Value, err = c.ReadLF32()
	case PropFloat64:
		p.Value, err = c.ReadLF64()
	case PropRaw:
		var size uint32
		if size, err = c.ReadLU32(); err == nil {
			var raw []byte
			if raw, err = c.Read(int(size)); err == nil {
				p.Value = append([]byte(nil), raw...)
			}
		}
	case PropString:
		var size uint32
		if size, err = c.ReadLU32(); err == nil {
			p.Value, err = c.ReadString(int(size), enc)
		}
	case PropBoolArray, PropByteArray, PropInt32Array, PropInt64Array, PropFloat32Array, PropFloat64Array:
		p.Value, err = readArray(c, t)
	default:
		return p, errors.Wrapf(ErrUnknownPropertyType, "tag %q at offset 0x%x", rune(tag), start)
	}
	if err != nil {
		return p, errors.Wrapf(err, "property %v at offset 0x%x", t, start)
	}
	return p, nil
}

func readArray(c *utils.Cursor, t PropertyType) (interface{}, error) {
	count, err := c.ReadLU32()
	if err != nil {
		return nil, err
	}
	encodingType, err := c.ReadLU32()
	if err != nil {
		return nil, err
	}
	compressedLength, err := c.ReadLU32()
	if err != nil {
		return nil, err
	}

	src := c
	if encodingType != 0 {
		compressed, err := c.Read(int(compressedLength))
		if err != nil {
			return nil, err
		}
		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, errors.Wrapf(ErrInflate, "%v", err)
		}
		inflated, err := ioutil.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, errors.Wrapf(ErrInflate, "%v", err)
		}
		src = utils.NewCursor(inflated)
	}

	// counts come from the file, check them before allocating
	if uint64(count)*uint64(t.elementSize()) > uint64(src.Remaining()) {
		return nil, errors.Wrapf(utils.ErrOutOfBounds, "array of %d x %v elements, %d bytes left", count, t, src.Remaining())
	}
	return decodeArray(src, t, int(count))
}

func decodeArray(c *utils.Cursor, t PropertyType, count int) (interface{}, error) {
	var err error
	switch t {
	case PropBoolArray, PropByteArray:
		r := make([]bool, count)
		for i := range r {
			if r[i], err = c.ReadBool(); err != nil {
				return nil, err
			}
		}
		return r, nil
	case PropInt32Array:
		r := make([]int32, count)
		for i := range r {
			if r[i], err = c.ReadLI32(); err != nil {
				return nil, err
			}
		}
		return r, nil
	case PropInt64Array:
		r := make([]int64, count)
		for i := range r {
			if r[i], err = c.ReadLI64(); err != nil {
				return nil, err
			}
		}
		return r, nil
	case PropFloat32Array:
		r := make([]float32, count)
		for i := range r {
			if r[i], err = c.ReadLF32(); err != nil {
				return nil, err
			}
		}
		return r, nil
	case PropFloat64Array:
		r := make([]float64, count)
		for i := range r {
			if r[i], err = c.ReadLF64(); err != nil {
				return nil, err
			}
		}
		return r, nil
	}
	return nil, errors.Wrapf(ErrUnknownPropertyType, "tag %q", rune(t))
}
