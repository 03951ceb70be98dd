// pkg/chunk/kind.go

package chunk

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

type CellType uint8

const (
	TypeBinary CellType = iota + 1
	TypeBoolean
	TypeInt
	TypeDouble
)

func (t CellType) String() string {
	switch t {
	case TypeBinary:
		return "binary"
	case TypeBoolean:
		return "boolean"
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	}
	return fmt.Sprintf("CellType(%d)", uint8(t))
}

func ParseCellType(s string) (CellType, error) {
	switch strings.ToLower(s) {
	case "binary", "bit":
		return TypeBinary, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "int", "integer":
		return TypeInt, nil
	case "double", "float", "float64":
		return TypeDouble, nil
	}
	return 0, fmt.Errorf("unknown cell type %q", s)
}

func (t CellType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *CellType) UnmarshalText(b []byte) error {
	v, err := ParseCellType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Tristate is the cell of a boolean grid; Null is its no-data value.
type Tristate int8

const (
	Null  Tristate = -1
	False Tristate = 0
	True  Tristate = 1
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "null"
}

// Kind describes how cells of type T are stored and viewed as numbers.
type Kind[T comparable] interface {
	Type() CellType
	// Width is the encoded size of one cell in bytes.
	Width() int
	Put(b []byte, v T)
	Get(b []byte) T
	Float(v T) float64
	FromFloat(f float64) T
}

var (
	Binary  Kind[bool]     = binaryKind{}
	Boolean Kind[Tristate] = booleanKind{}
	Int     Kind[int32]    = intKind{}
	Double  Kind[float64]  = doubleKind{}
)

type binaryKind struct{}

func (binaryKind) Type() CellType { return TypeBinary }
func (binaryKind) Width() int     { return 1 }
func (binaryKind) Put(b []byte, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}
func (binaryKind) Get(b []byte) bool { return b[0] != 0 }
func (binaryKind) Float(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
func (binaryKind) FromFloat(f float64) bool { return f != 0 }

type booleanKind struct{}

func (booleanKind) Type() CellType               { return TypeBoolean }
func (booleanKind) Width() int                   { return 1 }
func (booleanKind) Put(b []byte, v Tristate)     { b[0] = byte(v) }
func (booleanKind) Get(b []byte) Tristate        { return Tristate(int8(b[0])) }
func (booleanKind) Float(v Tristate) float64     { return float64(v) }
func (booleanKind) FromFloat(f float64) Tristate {
	switch {
	case f > 0:
		return True
	case f == 0:
		return False
	}
	return Null
}

type intKind struct{}

func (intKind) Type() CellType            { return TypeInt }
func (intKind) Width() int                { return 4 }
func (intKind) Put(b []byte, v int32)     { binary.BigEndian.PutUint32(b, uint32(v)) }
func (intKind) Get(b []byte) int32        { return int32(binary.BigEndian.Uint32(b)) }
func (intKind) Float(v int32) float64     { return float64(v) }
func (intKind) FromFloat(f float64) int32 { return int32(math.Round(f)) }

type doubleKind struct{}

func (doubleKind) Type() CellType              { return TypeDouble }
func (doubleKind) Width() int                  { return 8 }
func (doubleKind) Put(b []byte, v float64)     { binary.BigEndian.PutUint64(b, math.Float64bits(v)) }
func (doubleKind) Get(b []byte) float64        { return math.Float64frombits(binary.BigEndian.Uint64(b)) }
func (doubleKind) Float(v float64) float64     { return v }
func (doubleKind) FromFloat(f float64) float64 { return f }
