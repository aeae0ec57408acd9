package utils

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
)

var ErrOutOfBounds = errors.New("read out of bounds")

// Cursor is a forward-only little-endian reader over an in-memory buffer.
// A failed read leaves the offset untouched.
type Cursor struct {
	buf []byte
	pos int
}

func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) Len() int       { return len(c.buf) }
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Remaining() {
		return errors.Wrapf(ErrOutOfBounds, "need %d bytes at offset 0x%x, have %d", n, c.pos, c.Remaining())
	}
	return nil
}

func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Read returns the next n bytes without copying them.
func (c *Cursor) Read(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadBool() (bool, error) {
	b, err := c.ReadU8()
	return b&1 == 1, err
}

func (c *Cursor) ReadLU32() (uint32, error) {
	b, err := c.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) ReadLU64() (uint64, error) {
	b, err := c.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) ReadLI16() (int16, error) {
	b, err := c.Read(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (c *Cursor) ReadLI32() (int32, error) {
	v, err := c.ReadLU32()
	return int32(v), err
}

func (c *Cursor) ReadLI64() (int64, error) {
	v, err := c.ReadLU64()
	return int64(v), err
}

func (c *Cursor) ReadLF32() (float32, error) {
	v, err := c.ReadLU32()
	return math.Float32frombits(v), err
}

func (c *Cursor) ReadLF64() (float64, error) {
	v, err := c.ReadLU64()
	return math.Float64frombits(v), err
}

// ReadString reads n bytes and decodes them with enc (UTF-8 when nil).
func (c *Cursor) ReadString(n int, enc encoding.Encoding) (string, error) {
	b, err := c.Read(n)
	if err != nil {
		return "", err
	}
	return DecodeString(b, enc)
}
