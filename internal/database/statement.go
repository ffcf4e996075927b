package database

import (
	"fmt"
	"strconv"

	"github.com/koustreak/brewery/internal/errs"
)

// Marker is the substitution marker in statement templates.
// A doubled marker ("%%") renders one literal '%'.
const Marker = '%'

// Statement is rendered SQL text, optionally carrying bound parameters.
// It is immutable once built.
type Statement struct {
	buf   []byte // SQL text followed by a NUL byte
	args  []any
	bound bool
}

// SQL returns the statement text.
func (s Statement) SQL() string {
	if len(s.buf) == 0 {
		return ""
	}
	return string(s.buf[:len(s.buf)-1])
}

func (s Statement) String() string {
	return s.SQL()
}

// CString returns a copy of the text including its terminating NUL.
func (s Statement) CString() []byte {
	if len(s.buf) == 0 {
		return []byte{0}
	}
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Args returns a copy of the bound parameters in placeholder order.
func (s Statement) Args() []any {
	if len(s.args) == 0 {
		return nil
	}
	out := make([]any, len(s.args))
	copy(out, s.args)
	return out
}

// IsBound reports whether the statement was built with parameter binding.
func (s Statement) IsBound() bool {
	return s.bound
}

// Raw wraps already-built SQL text without rendering or capacity checks.
func Raw(sql string) Statement {
	buf := make([]byte, 0, len(sql)+1)
	buf = append(buf, sql...)
	return Statement{buf: append(buf, 0)}
}

// Formatter renders statement templates into a capacity-checked buffer.
type Formatter struct {
	capacity int
}

// NewFormatter returns a formatter whose output, NUL included, never
// exceeds capacity bytes. A capacity <= 0 means unbounded.
func NewFormatter(capacity int) *Formatter {
	return &Formatter{capacity: capacity}
}

// Capacity returns the byte budget, or 0 when unbounded.
func (f *Formatter) Capacity() int {
	if f.capacity < 0 {
		return 0
	}
	return f.capacity
}

var defaultFormatter = NewFormatter(DefaultStatementCapacity)

// Format renders template with the default capacity, substituting each
// marker with the text of the corresponding argument.
//
// Arguments are interpolated verbatim; string values are not escaped.
// Prefer Bind for anything that carries user input.
func Format(template string, args ...any) (Statement, error) {
	return defaultFormatter.Format(template, args...)
}

// Bind renders template with the default capacity, replacing each marker
// with a "?" placeholder and carrying the argument as a bound parameter.
func Bind(template string, args ...any) (Statement, error) {
	return defaultFormatter.Bind(template, args...)
}

// Format substitutes every marker in template with the text rendering of
// the next argument.
//
// Example:
//
//	st, err := f.Format("INSERT INTO Goblets(ID, Name, Capacity) VALUES(%, '%', %)", 3, "Pint", 0.5)
//	// INSERT INTO Goblets(ID, Name, Capacity) VALUES(3, 'Pint', 0.5)
func (f *Formatter) Format(template string, args ...any) (Statement, error) {
	return f.render(template, args, false)
}

// Bind has the same call shape as Format but emits "?" placeholders.
// A marker wrapped in single quotes ('%') is treated as a bare marker so
// legacy templates can be bound without edits.
func (f *Formatter) Bind(template string, args ...any) (Statement, error) {
	return f.render(template, args, true)
}

func (f *Formatter) render(template string, args []any, bind bool) (Statement, error) {
	buf := newBuffer(f.capacity, len(template))
	var bound []any
	next := 0
	quoted := false

	for i := 0; i < len(template); i++ {
		ch := template[i]
		if ch != Marker {
			if ch == '\'' {
				quoted = !quoted
			}
			if err := buf.writeByte(ch); err != nil {
				return Statement{}, err
			}
			continue
		}
		if i+1 < len(template) && template[i+1] == Marker {
			if err := buf.writeByte(Marker); err != nil {
				return Statement{}, err
			}
			i++
			continue
		}

		if next >= len(args) {
			return Statement{}, errs.Newf(errs.ErrKindInvalidInput,
				"template %q has more markers than arguments (%d)", template, len(args))
		}
		arg := args[next]
		next++

		if bind {
			v, err := bindValue(arg)
			if err != nil {
				return Statement{}, err
			}
			switch {
			case quotedMarker(template, i):
				buf.unwriteByte()
				quoted = false
				i++
			case quoted:
				return Statement{}, errs.Newf(errs.ErrKindInvalidInput,
					"template %q has a marker inside a string literal; write it as '%%' or bind the whole value", template)
			}
			if err := buf.writeByte('?'); err != nil {
				return Statement{}, err
			}
			bound = append(bound, v)
			continue
		}

		text, err := renderValue(arg)
		if err != nil {
			return Statement{}, err
		}
		if err := buf.writeString(text); err != nil {
			return Statement{}, err
		}
	}

	if next != len(args) {
		return Statement{}, errs.Newf(errs.ErrKindInvalidInput,
			"template %q has fewer markers than arguments (%d)", template, len(args))
	}

	return Statement{buf: buf.terminate(), args: bound, bound: bind}, nil
}

// quotedMarker reports whether the marker at i is written as '%'.
func quotedMarker(template string, i int) bool {
	return i > 0 && template[i-1] == '\'' && i+1 < len(template) && template[i+1] == '\''
}

// buffer is an append-only byte buffer that refuses to grow past limit.
// One byte of the limit is always reserved for the terminating NUL.
type buffer struct {
	data  []byte
	limit int
}

func newBuffer(limit, hint int) *buffer {
	if limit > 0 {
		return &buffer{data: make([]byte, 0, limit), limit: limit}
	}
	return &buffer{data: make([]byte, 0, hint+1)}
}

func (b *buffer) fits(n int) error {
	if b.limit > 0 && len(b.data)+n+1 > b.limit {
		return errs.Newf(errs.ErrKindFormatOverflow,
			"statement exceeds %d bytes", b.limit)
	}
	return nil
}

func (b *buffer) writeByte(c byte) error {
	if err := b.fits(1); err != nil {
		return err
	}
	b.data = append(b.data, c)
	return nil
}

func (b *buffer) writeString(s string) error {
	if err := b.fits(len(s)); err != nil {
		return err
	}
	b.data = append(b.data, s...)
	return nil
}

func (b *buffer) unwriteByte() {
	b.data = b.data[:len(b.data)-1]
}

func (b *buffer) terminate() []byte {
	return append(b.data, 0)
}

// renderValue is the text rendering used by Format.
func renderValue(arg any) (string, error) {
	switch v := arg.(type) {
	case nil:
		return "NULL", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case error:
		return v.Error(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", errs.Newf(errs.ErrKindInvalidInput, "cannot render argument of type %T", arg)
	}
}

// bindValue normalises arg to one of the types the engine binds directly:
// nil, int64, float64, string or []byte.
func bindValue(arg any) (any, error) {
	switch v := arg.(type) {
	case nil, int64, float64, string, []byte:
		return v, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		if uint64(v) > 1<<63-1 {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "value %d overflows a 64-bit integer column", v)
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > 1<<63-1 {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "value %d overflows a 64-bit integer column", v)
		}
		return int64(v), nil
	case float32:
		// Go through the shortest decimal so 0.1 binds as 0.1, not 0.100000001.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
		return f, nil
	case error:
		return v.Error(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "cannot bind argument of type %T", arg)
	}
}

// newBoundStatement wraps pre-built SQL with "?" placeholders and its args.
func newBoundStatement(sql string, args []any, capacity int) (Statement, error) {
	buf := newBuffer(capacity, len(sql))
	if err := buf.writeString(sql); err != nil {
		return Statement{}, err
	}
	bound := make([]any, len(args))
	for i, arg := range args {
		v, err := bindValue(arg)
		if err != nil {
			return Statement{}, err
		}
		bound[i] = v
	}
	return Statement{buf: buf.terminate(), args: bound, bound: true}, nil
}
