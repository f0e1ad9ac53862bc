// Package typeinfo maps declared kernel parameter types to a display format.
//
// Declared types come from kernel source and carry qualifiers
// ("__global const float *", "unsigned int") that are not modelled. A type is
// resolved by scanning an ordered table and taking the first row whose key is
// a substring of the declared type, so more specific keys must come first:
// "uint" before "int", "ulong" and "long double" before "long".
package typeinfo

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Category is the numeric family used to decode raw bytes.
type Category int

const (
	Default Category = iota
	Float
	Double
	Int
	Uint
)

func (c Category) String() string {
	switch c {
	case Default:
		return "default"
	case Float:
		return "float"
	case Double:
		return "double"
	case Int:
		return "int"
	case Uint:
		return "uint"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Info describes how to display one element of a type.
type Info struct {
	Key      string
	Format   string
	Size     int
	Category Category
}

var defaultInfo = Info{Key: "", Format: "%#x", Size: 4, Category: Default}

var table = []Info{
	{Key: "unsigned char", Format: "%d", Size: 1, Category: Uint},
	{Key: "uchar", Format: "%d", Size: 1, Category: Uint},
	{Key: "unsigned short", Format: "%d", Size: 2, Category: Uint},
	{Key: "ushort", Format: "%d", Size: 2, Category: Uint},
	{Key: "unsigned long", Format: "%d", Size: 8, Category: Uint},
	{Key: "ulong", Format: "%d", Size: 8, Category: Uint},
	{Key: "unsigned int", Format: "%d", Size: 4, Category: Uint},
	{Key: "uint", Format: "%d", Size: 4, Category: Uint},
	{Key: "size_t", Format: "%d", Size: 8, Category: Uint},
	{Key: "unsigned", Format: "%d", Size: 4, Category: Uint},
	{Key: "char", Format: "%d", Size: 1, Category: Int},
	{Key: "short", Format: "%d", Size: 2, Category: Int},
	{Key: "long double", Format: "%#x", Size: 16, Category: Default},
	{Key: "long", Format: "%d", Size: 8, Category: Int},
	{Key: "int", Format: "%d", Size: 4, Category: Int},
	{Key: "double", Format: "%g", Size: 8, Category: Double},
	{Key: "float", Format: "%g", Size: 4, Category: Float},
	{Key: "half", Format: "%#x", Size: 2, Category: Default},
}

// Table returns a copy of the ordered resolution table.
func Table() []Info {
	out := make([]Info, len(table))
	copy(out, table)
	return out
}

// DefaultInfo returns the row used when nothing matches.
func DefaultInfo() *Info { return &defaultInfo }

// Resolve returns the first row whose key occurs in typeName. An empty type
// name or a miss returns the default row, never nil.
func Resolve(typeName string) *Info {
	if typeName == "" {
		return &defaultInfo
	}
	for i := range table {
		if strings.Contains(typeName, table[i].Key) {
			return &table[i]
		}
	}
	return &defaultInfo
}

// IsPointer reports whether the declared type contains a pointer mark.
func IsPointer(typeName string) bool {
	return strings.ContainsRune(typeName, '*')
}

// IsConst reports whether the declared type carries a const qualifier.
func IsConst(typeName string) bool {
	for _, f := range strings.FieldsFunc(typeName, func(r rune) bool {
		return r == ' ' || r == '*' || r == '\t'
	}) {
		if f == "const" {
			return true
		}
	}
	return false
}

// FormatValue formats the first element held in b. Short input that cannot
// hold a whole element is shown as raw hex.
func (i *Info) FormatValue(b []byte) string {
	if i.Category == Default || len(b) < i.Size {
		return fmt.Sprintf("%#x", b[:min(len(b), max(i.Size, 0))])
	}
	b = b[:i.Size]
	switch i.Category {
	case Float:
		return fmt.Sprintf(i.Format, math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Double:
		return fmt.Sprintf(i.Format, math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case Int:
		return fmt.Sprintf(i.Format, signed(b))
	case Uint:
		return fmt.Sprintf(i.Format, unsigned(b))
	}
	return fmt.Sprintf("%#x", b)
}

// FormatElements formats consecutive elements of b, at most limit of them
// when limit > 0. Trailing bytes that do not fill an element are dropped.
func (i *Info) FormatElements(b []byte, limit int) []string {
	size := i.Size
	if size <= 0 {
		size = 1
	}
	n := len(b) / size
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]string, 0, n)
	for k := 0; k < n; k++ {
		out = append(out, i.FormatValue(b[k*size:(k+1)*size]))
	}
	return out
}

// FormatFloats shows b as consecutive float32 values.
func FormatFloats(b []byte) string {
	var sb strings.Builder
	for k := 0; k+4 <= len(b); k += 4 {
		if k > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g", math.Float32frombits(binary.LittleEndian.Uint32(b[k:])))
	}
	return sb.String()
}

func unsigned(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	}
	var v uint64
	for k := min(len(b), 8) - 1; k >= 0; k-- {
		v = v<<8 | uint64(b[k])
	}
	return v
}

func signed(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	}
	return int64(unsigned(b))
}
