package syncengine

import (
	"fmt"
	"strconv"
	"time"
)

// CellKind tags the dynamic type a peer adapter observed for one cell.
// Every peer hands back loosely-typed data (a spreadsheet cell is always
// text, a database driver may hand back int64, float64, bool, or a
// time.Time); CellKind keeps that provenance around without forcing the
// detector or resolver to type-switch on interface{}.
type CellKind string

const (
	KindNull      CellKind = "null"
	KindText      CellKind = "text"
	KindNumber    CellKind = "number"
	KindBool      CellKind = "bool"
	KindTimestamp CellKind = "timestamp"
)

// Cell is one value in a Row. Comparisons across peers never use Kind or
// Raw directly — they go through String(), the canonical projection that
// makes a database int64(42) and a spreadsheet text "42" compare equal.
type Cell struct {
	Kind CellKind
	Raw  any
}

// NullCell is the empty cell, equivalent to a missing column.
var NullCell = Cell{Kind: KindNull}

func TextCell(v string) Cell { return Cell{Kind: KindText, Raw: v} }

func NumberCell(v float64) Cell { return Cell{Kind: KindNumber, Raw: v} }

func BoolCell(v bool) Cell { return Cell{Kind: KindBool, Raw: v} }

func TimestampCell(v time.Time) Cell { return Cell{Kind: KindTimestamp, Raw: v} }

// String renders the cell's canonical string projection. A null/missing
// cell projects to the empty string.
func (c Cell) String() string {
	switch c.Kind {
	case "", KindNull:
		return ""
	case KindText:
		s, _ := c.Raw.(string)
		return s
	case KindNumber:
		switch v := c.Raw.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(v, 10)
		case int:
			return strconv.Itoa(v)
		default:
			return fmt.Sprintf("%v", v)
		}
	case KindBool:
		b, _ := c.Raw.(bool)
		return strconv.FormatBool(b)
	case KindTimestamp:
		t, ok := c.Raw.(time.Time)
		if !ok {
			return fmt.Sprintf("%v", c.Raw)
		}
		return t.Format(TimestampLayout)
	default:
		return fmt.Sprintf("%v", c.Raw)
	}
}

// IsNull reports whether the cell carries no value.
func (c Cell) IsNull() bool {
	return c.Kind == "" || c.Kind == KindNull || c.Raw == nil
}
