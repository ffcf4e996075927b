package database

import (
	"strings"
	"testing"

	"github.com/koustreak/brewery/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drinkName string

func (d drinkName) String() string { return "drink:" + string(d) }

func TestFormat_SubstitutesPositionally(t *testing.T) {
	tests := []struct {
		name     string
		template string
		args     []any
		want     string
	}{
		{
			name:     "insert with mixed kinds",
			template: "INSERT INTO Drinks(ID, Name, PricePerLiter, AgeRestriction) VALUES(%,'%',%,%)",
			args:     []any{7, "Stout", float32(12.5), 18},
			want:     "INSERT INTO Drinks(ID, Name, PricePerLiter, AgeRestriction) VALUES(7,'Stout',12.5,18)",
		},
		{
			name:     "no markers",
			template: "SELECT * FROM Drinks",
			want:     "SELECT * FROM Drinks",
		},
		{
			name:     "doubled marker is a literal percent",
			template: "SELECT * FROM Drinks WHERE Name LIKE '%%ale' AND ID > %",
			args:     []any{3},
			want:     "SELECT * FROM Drinks WHERE Name LIKE '%ale' AND ID > 3",
		},
		{
			name:     "float64 shortest form",
			template: "% %",
			args:     []any{0.1, 2.0},
			want:     "0.1 2",
		},
		{
			name:     "unsigned, bool, nil",
			template: "%,%,%,%",
			args:     []any{uint16(65535), true, false, nil},
			want:     "65535,1,0,NULL",
		},
		{
			name:     "stringer and bytes",
			template: "% %",
			args:     []any{drinkName("ale"), []byte("raw")},
			want:     "drink:ale raw",
		},
		{
			name:     "negative int64",
			template: "%",
			args:     []any{int64(-9000000000)},
			want:     "-9000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Format(tt.template, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.SQL())
			assert.Equal(t, tt.want, st.String())
			assert.False(t, st.IsBound())
			assert.Nil(t, st.Args())

			c := st.CString()
			require.Len(t, c, len(tt.want)+1)
			assert.Equal(t, byte(0), c[len(c)-1])
			assert.Equal(t, tt.want, string(c[:len(c)-1]))
		})
	}
}

func TestFormat_Overflow(t *testing.T) {
	f := NewFormatter(16)

	// 15 bytes of text plus the NUL fill the buffer exactly.
	st, err := f.Format("SELECT % FROM T", 1)
	require.NoError(t, err)
	assert.Len(t, st.CString(), 16)

	_, err = f.Format("SELECT % FROM T", 10)
	require.Error(t, err)
	assert.True(t, errs.IsFormatOverflow(err))

	_, err = f.Format("SELECT * FROM %", strings.Repeat("x", 100))
	assert.True(t, errs.IsFormatOverflow(err))
}

func TestFormat_DefaultCapacity(t *testing.T) {
	long := strings.Repeat("n", DefaultStatementCapacity)
	_, err := Format("SELECT * FROM Waiters WHERE ShortName = '%'", long)
	assert.True(t, errs.IsFormatOverflow(err))

	st, err := NewFormatter(0).Format("SELECT * FROM Waiters WHERE ShortName = '%'", long)
	require.NoError(t, err)
	assert.Contains(t, st.SQL(), long)
	assert.Equal(t, 0, NewFormatter(-5).Capacity())
}

func TestFormat_ArgumentMismatch(t *testing.T) {
	_, err := Format("VALUES(%, %)", 1)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Format("VALUES(%)", 1, 2)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Format("VALUES(%)", struct{}{})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestBind_ReplacesMarkersWithPlaceholders(t *testing.T) {
	st, err := Bind("INSERT INTO Waiters(ID, ShortName, Salary, FullAge) VALUES(%, '%', %, %)",
		4, "O'Neil", float32(0.1), uint8(30))
	require.NoError(t, err)

	assert.True(t, st.IsBound())
	assert.Equal(t, "INSERT INTO Waiters(ID, ShortName, Salary, FullAge) VALUES(?, ?, ?, ?)", st.SQL())
	assert.Equal(t, []any{int64(4), "O'Neil", 0.1, int64(30)}, st.Args())
}

func TestBind_ArgsAreCopied(t *testing.T) {
	st, err := Bind("SELECT % , %", 1, "a")
	require.NoError(t, err)

	args := st.Args()
	args[0] = "changed"
	assert.Equal(t, int64(1), st.Args()[0])
}

func TestBind_Errors(t *testing.T) {
	_, err := Bind("SELECT %", map[string]int{})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Bind("SELECT %", uint64(1<<63))
	assert.True(t, errs.IsInvalidInput(err))

	_, err = NewFormatter(8).Bind("SELECT * FROM T WHERE ID = %", 1)
	assert.True(t, errs.IsFormatOverflow(err))

	for _, template := range []string{
		"INSERT INTO N VALUES (%, 'n%')",
		"SELECT * FROM T WHERE Name LIKE 'x%'",
		"SELECT '%s'",
	} {
		_, err = Bind(template, 1)
		assert.True(t, errs.IsInvalidInput(err), template)
	}
}

func TestBind_QuotedSpans(t *testing.T) {
	st, err := Bind("SELECT * FROM T WHERE a = '%' AND b LIKE 'x%%' AND c = %", "v", 3)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM T WHERE a = ? AND b LIKE 'x%' AND c = ?", st.SQL())
	assert.Equal(t, []any{"v", int64(3)}, st.Args())

	st, err = Bind("SELECT 'it''s', %", 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 'it''s', ?", st.SQL())
}

func TestBindValue_UnsignedOverflow(t *testing.T) {
	v, err := bindValue(uint(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = bindValue(uint64(1<<63 + 5))
	assert.True(t, errs.IsInvalidInput(err))

	if ^uint(0)>>63 == 1 {
		big := ^uint(0)
		_, err = bindValue(big)
		assert.True(t, errs.IsInvalidInput(err))
	}
}

func TestRaw(t *testing.T) {
	st := Raw("CREATE TABLE T(id INTEGER)")
	assert.Equal(t, "CREATE TABLE T(id INTEGER)", st.SQL())
	assert.Equal(t, byte(0), st.CString()[len(st.CString())-1])

	var zero Statement
	assert.Equal(t, "", zero.SQL())
	assert.Equal(t, []byte{0}, zero.CString())
}
