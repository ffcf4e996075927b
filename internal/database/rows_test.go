package database

import (
	"testing"

	"github.com/koustreak/brewery/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRows(t *testing.T) {
	conn, _ := openTestDB(t)
	mustExec(t, conn, "CREATE TABLE Goblets(ID INTEGER PRIMARY KEY, Name TEXT, Capacity REAL)")
	mustExec(t, conn, "INSERT INTO Goblets VALUES (1, 'Pint', 0.5), (2, 'Flute', NULL)")

	rows, err := ScanRows(conn.Query(Raw("SELECT * FROM Goblets ORDER BY ID")))
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"ID": int64(1), "Name": "Pint", "Capacity": 0.5},
		{"ID": int64(2), "Name": "Flute", "Capacity": nil},
	}, rows)
}

func TestScanRows_Empty(t *testing.T) {
	conn, _ := openTestDB(t)
	mustExec(t, conn, "CREATE TABLE Goblets(ID INTEGER)")

	rows, err := ScanRows(conn.Query(Raw("SELECT * FROM Goblets")))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestScanRows_CompileError(t *testing.T) {
	conn, _ := openTestDB(t)

	rows, err := ScanRows(conn.Query(Raw("SELECT * FROM Missing")))
	assert.Nil(t, rows)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestScanTable_KeepsColumnOrder(t *testing.T) {
	conn, _ := openTestDB(t)
	mustExec(t, conn, "CREATE TABLE W(Z TEXT, A TEXT, M TEXT)")
	mustExec(t, conn, "INSERT INTO W VALUES ('z', 'a', 'm')")

	cols, rows, err := ScanTable(conn.Query(Raw("SELECT * FROM W")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "A", "M"}, cols)
	require.Len(t, rows, 1)
	assert.Equal(t, "m", rows[0]["M"])
}
