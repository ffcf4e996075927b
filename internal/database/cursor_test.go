package database

import (
	"fmt"
	"testing"

	"github.com/koustreak/brewery/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNumbers(t *testing.T, conn *Connection, n int) {
	t.Helper()
	mustExec(t, conn, "CREATE TABLE N(id INTEGER PRIMARY KEY, label TEXT)")
	for i := 1; i <= n; i++ {
		require.NoError(t, conn.Execute(mustBind(t, "INSERT INTO N VALUES (%, '%')", i, fmt.Sprintf("n%d", i))))
	}
}

func TestCursor_IteratesEveryRow(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 5)

	cur := conn.Query(Raw("SELECT id FROM N ORDER BY id"))
	defer cur.Close()

	var got []int
	for ; cur.Valid(); cur.Next() {
		id, err := cur.ColumnInt(0)
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.NoError(t, cur.Err())

	// Exhausted stays exhausted until Reset.
	cur.Next()
	cur.Next()
	assert.False(t, cur.Valid())

	cur.Reset()
	require.True(t, cur.Valid())
	id, err := cur.ColumnInt(0)
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestCursor_ResetIsIdempotent(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 3)

	cur := conn.Query(Raw("SELECT id FROM N ORDER BY id"))
	defer cur.Close()

	cur.Next()
	cur.Reset()
	cur.Reset()

	require.True(t, cur.Valid())
	id, err := cur.ColumnInt64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestCursor_EmptyResult(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 0)

	cur := conn.Query(Raw("SELECT id, label FROM N"))
	defer cur.Close()

	assert.False(t, cur.Valid())
	assert.NoError(t, cur.Err())

	// Result shape is available without a current row.
	assert.Equal(t, 2, cur.ColumnCount())
	name, err := cur.ColumnName(1)
	require.NoError(t, err)
	assert.Equal(t, "label", name)
	assert.Equal(t, []string{"id", "label"}, cur.ColumnNames())

	_, err = cur.ColumnString(0)
	assert.True(t, errs.IsNoCurrentRow(err))
	_, err = cur.Values()
	assert.True(t, errs.IsNoCurrentRow(err))
}

func TestCursor_ColumnIndexOutOfRange(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 1)

	cur := conn.Query(Raw("SELECT id, label FROM N"))
	defer cur.Close()
	require.True(t, cur.Valid())

	for _, i := range []int{-1, 2, 10} {
		_, err := cur.ColumnInt(i)
		assert.True(t, errs.IsColumnIndexOutOfRange(err), "index %d", i)
		_, err = cur.ColumnName(i)
		assert.True(t, errs.IsColumnIndexOutOfRange(err), "index %d", i)
	}
}

func TestCursor_TypedAccessors(t *testing.T) {
	conn, _ := openTestDB(t)

	cur := conn.Query(Raw("SELECT 7, 2.5, 'Stout', NULL, x'0102'"))
	defer cur.Close()
	require.True(t, cur.Valid())

	i, err := cur.ColumnInt(0)
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	f, err := cur.ColumnFloat(1)
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), f)

	d, err := cur.ColumnDouble(1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, d)

	s, err := cur.ColumnString(2)
	require.NoError(t, err)
	assert.Equal(t, "Stout", s)

	s, err = cur.ColumnString(3)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	null, err := cur.ColumnIsNull(3)
	require.NoError(t, err)
	assert.True(t, null)
	null, err = cur.ColumnIsNull(2)
	require.NoError(t, err)
	assert.False(t, null)

	values := make([]any, cur.ColumnCount())
	for c := range values {
		values[c], err = cur.Value(c)
		require.NoError(t, err)
	}
	assert.Equal(t, []any{int64(7), 2.5, "Stout", nil, []byte{1, 2}}, values)

	texts, err := cur.Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "2.5", "Stout", "", "\x01\x02"}, texts)
}

func TestCursor_BoundQuery(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 10)

	cur := conn.Query(mustBind(t, "SELECT label FROM N WHERE id > % AND label <> '%' ORDER BY id", 7, "n9"))
	defer cur.Close()

	var got []string
	for ; cur.Valid(); cur.Next() {
		s, err := cur.ColumnString(0)
		require.NoError(t, err)
		got = append(got, s)
	}
	assert.Equal(t, []string{"n8", "n10"}, got)
}

func TestCursor_CloneIsIndependent(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 3)

	cur := conn.Query(Raw("SELECT id FROM N ORDER BY id"))
	defer cur.Close()
	cur.Next()

	clone := cur.Clone()
	defer clone.Close()

	id, err := clone.ColumnInt(0)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	clone.Next()
	clone.Next()
	clone.Next()
	assert.False(t, clone.Valid())

	id, err = cur.ColumnInt(0)
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	assert.Equal(t, cur.Statement().SQL(), clone.Statement().SQL())
}

func TestCursor_CloseTwice(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 1)

	cur := conn.Query(Raw("SELECT * FROM N"))
	require.NoError(t, cur.Close())
	require.NoError(t, cur.Close())

	assert.False(t, cur.Valid())
	assert.Equal(t, 0, cur.ColumnCount())
}

func TestCursor_ConnectionCloseFinalizesCursors(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 2)

	a := conn.Query(Raw("SELECT * FROM N"))
	b := conn.Query(Raw("SELECT id FROM N"))
	require.True(t, a.Valid())
	require.True(t, b.Valid())

	require.NoError(t, conn.Close())

	assert.False(t, a.Valid())
	assert.False(t, b.Valid())
	assert.NoError(t, a.Close())
	assert.NoError(t, b.Close())
}

func TestCursor_SeesRowsWrittenBeforeReset(t *testing.T) {
	conn, _ := openTestDB(t)
	seedNumbers(t, conn, 1)

	cur := conn.Query(Raw("SELECT COUNT(*) FROM N"))
	defer cur.Close()
	n, err := cur.ColumnInt(0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	cur.Next()

	mustExec(t, conn, "INSERT INTO N VALUES (2, 'n2')")

	cur.Reset()
	n, err = cur.ColumnInt(0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFailedCursor(t *testing.T) {
	cause := errs.New(errs.ErrKindFormatOverflow, "too long")
	cur := FailedCursor(cause)

	assert.False(t, cur.Valid())
	assert.Same(t, cause, cur.Err())
	assert.Equal(t, 0, cur.ColumnCount())

	clone := cur.Clone()
	assert.False(t, clone.Valid())
	assert.Equal(t, cause, clone.Err())
	assert.NoError(t, cur.Close())
}

func TestCursor_ResetAfterFailedStep(t *testing.T) {
	conn, sink := openTestDB(t)
	mustExec(t, conn, "CREATE TABLE U(a INTEGER UNIQUE)")
	mustExec(t, conn, "INSERT INTO U VALUES (1)")

	cur := conn.Query(Raw("INSERT INTO U VALUES (1)"))
	defer cur.Close()
	assert.False(t, cur.Valid())
	assert.True(t, errs.IsConstraintViolation(cur.Err()))
	require.Equal(t, 1, sink.Len())

	// Each Reset steps again and logs the failure exactly once.
	cur.Reset()
	assert.False(t, cur.Valid())
	assert.True(t, errs.IsConstraintViolation(cur.Err()))
	require.Equal(t, 2, sink.Len())
	assert.Contains(t, sink.Lines()[1], "UNIQUE constraint failed")

	cur.Reset()
	assert.True(t, errs.IsConstraintViolation(cur.Err()))
	assert.Equal(t, 3, sink.Len())

	mustExec(t, conn, "DELETE FROM U")
	cur.Reset()
	assert.False(t, cur.Valid())
	assert.NoError(t, cur.Err())
	assert.Equal(t, 3, sink.Len())

	n, err := conn.Size("U")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
