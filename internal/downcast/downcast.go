// Package downcast narrows numeric table columns to the smallest dtype whose
// range holds every value, to estimate and reduce in-memory footprint.
package downcast

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyCSV is returned when the input has no header row.
var ErrEmptyCSV = errors.New("csv has no header")

// DType is a column element type.
type DType int

const (
	Object DType = iota
	Int8
	Int16
	Int32
	Int64
	Float16
	Float32
	Float64
)

var dtypeNames = [...]string{"object", "int8", "int16", "int32", "int64", "float16", "float32", "float64"}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return "dtype(" + strconv.Itoa(int(d)) + ")"
}

// MarshalText lets DType print by name in JSON output.
func (d DType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Size is the element size in bytes; 0 for Object.
func (d DType) Size() int {
	switch d {
	case Int8:
		return 1
	case Int16, Float16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	}
	return 0
}

func (d DType) isInt() bool   { return d >= Int8 && d <= Int64 }
func (d DType) isFloat() bool { return d >= Float16 && d <= Float64 }

// Largest finite float16 value.
const maxFloat16 = 65504.0

// Column is one table column. Values stay in 64-bit storage regardless of
// Type; Type is the narrowest dtype able to hold them.
type Column struct {
	Name   string
	Type   DType
	Ints   []int64   // set for integer columns
	Floats []float64 // set for float columns, NaN for empty cells
	Raw    []string
}

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.Raw) }

// MemoryBytes estimates the column footprint. Object columns count string bytes.
func (c *Column) MemoryBytes() int64 {
	if c.Type == Object {
		var n int64
		for _, s := range c.Raw {
			n += int64(len(s))
		}
		return n
	}
	return int64(c.Len()) * int64(c.Type.Size())
}

// Table is a set of equally long columns.
type Table struct {
	Columns []*Column
}

// MemoryBytes sums the footprint of every column.
func (t *Table) MemoryBytes() int64 {
	var n int64
	for _, c := range t.Columns {
		n += c.MemoryBytes()
	}
	return n
}

// ReadCSV reads a CSV with a header row. A column is Int64 when every cell
// parses as an integer, Float64 when every cell is empty or parses as a
// float, and Object otherwise.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Columns: make([]*Column, len(header))}
	for i, name := range header {
		t.Columns[i] = &Column{Name: strings.TrimSpace(name)}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for i, cell := range rec {
			t.Columns[i].Raw = append(t.Columns[i].Raw, strings.TrimSpace(cell))
		}
	}

	for _, c := range t.Columns {
		c.infer()
	}
	return t, nil
}

func (c *Column) infer() {
	ints := make([]int64, 0, len(c.Raw))
	for _, s := range c.Raw {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			break
		}
		ints = append(ints, n)
	}
	if len(ints) == len(c.Raw) {
		c.Type, c.Ints = Int64, ints
		return
	}

	floats := make([]float64, 0, len(c.Raw))
	for _, s := range c.Raw {
		if s == "" {
			floats = append(floats, math.NaN())
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.Type = Object
			return
		}
		floats = append(floats, f)
	}
	c.Type, c.Floats = Float64, floats
}

// Change records the dtype transition of one column.
type Change struct {
	Column string `json:"column"`
	From   DType  `json:"from"`
	To     DType  `json:"to"`
}

// Downcast narrows every numeric column of t in place. The first dtype
// whose open range (min, max) strictly contains the column's minimum and
// maximum is chosen. Object columns are left alone.
func Downcast(t *Table) []Change {
	changes := make([]Change, 0, len(t.Columns))
	for _, c := range t.Columns {
		from := c.Type
		switch {
		case c.Type.isInt():
			c.Type = narrowInt(c.Ints)
		case c.Type.isFloat():
			c.Type = narrowFloat(c.Floats)
		}
		changes = append(changes, Change{Column: c.Name, From: from, To: c.Type})
	}
	return changes
}

func narrowInt(vs []int64) DType {
	if len(vs) == 0 {
		return Int64
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	switch {
	case lo > math.MinInt8 && hi < math.MaxInt8:
		return Int8
	case lo > math.MinInt16 && hi < math.MaxInt16:
		return Int16
	case lo > math.MinInt32 && hi < math.MaxInt32:
		return Int32
	}
	return Int64
}

func narrowFloat(vs []float64) DType {
	lo, hi := math.NaN(), math.NaN()
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(lo) || v < lo {
			lo = v
		}
		if math.IsNaN(hi) || v > hi {
			hi = v
		}
	}
	// NaN bounds fail every comparison and fall through to Float64.
	switch {
	case lo > -maxFloat16 && hi < maxFloat16:
		return Float16
	case lo > -math.MaxFloat32 && hi < math.MaxFloat32:
		return Float32
	}
	return Float64
}
