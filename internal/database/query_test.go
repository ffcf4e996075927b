package database

import (
	"testing"

	"github.com/koustreak/brewery/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuilder_Build(t *testing.T) {
	tests := []struct {
		name     string
		builder  *SelectBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "select all",
			builder: Select("Drinks"),
			wantSQL: `SELECT * FROM "Drinks"`,
		},
		{
			name:    "columns",
			builder: Select("Drinks").Columns("ID", "Name"),
			wantSQL: `SELECT "ID", "Name" FROM "Drinks"`,
		},
		{
			name:     "where and order",
			builder:  Select("Drinks").Where("PricePerLiter", "<", 12.5).Where("name", "like", "S%").OrderBy("Name", Asc).OrderBy("ID", Desc),
			wantSQL:  `SELECT * FROM "Drinks" WHERE "PricePerLiter" < ? AND "name" LIKE ? ORDER BY "Name" ASC, "ID" DESC`,
			wantArgs: []any{12.5, "S%"},
		},
		{
			name:     "limit and offset",
			builder:  Select("Waiters").Limit(10).Offset(20),
			wantSQL:  `SELECT * FROM "Waiters" LIMIT ? OFFSET ?`,
			wantArgs: []any{int64(10), int64(20)},
		},
		{
			name:     "offset only",
			builder:  Select("Waiters").Offset(5),
			wantSQL:  `SELECT * FROM "Waiters" LIMIT ? OFFSET ?`,
			wantArgs: []any{int64(-1), int64(5)},
		},
		{
			name:    "quoted identifiers",
			builder: Select(`we"ird`),
			wantSQL: `SELECT * FROM "we""ird"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := tt.builder.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, st.SQL())
			assert.True(t, st.IsBound())
			if tt.wantArgs == nil {
				assert.Empty(t, st.Args())
			} else {
				assert.Equal(t, tt.wantArgs, st.Args())
			}
		})
	}
}

func TestSelectBuilder_Rejects(t *testing.T) {
	_, err := Select("Drinks").Where("ID", "; DROP TABLE Drinks; --", 1).Build()
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Select("Drinks").Limit(-1).Build()
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Select("Drinks").Offset(-1).Build()
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Select("Drinks").Capacity(10).Build()
	assert.True(t, errs.IsFormatOverflow(err))
}

func TestSelectBuilder_RunsAgainstSQLite(t *testing.T) {
	conn, _ := openTestDB(t)
	mustExec(t, conn, "CREATE TABLE Drinks(ID INTEGER PRIMARY KEY, Name TEXT, PricePerLiter REAL)")
	mustExec(t, conn, `INSERT INTO Drinks VALUES
		(1, 'Stout', 9.5), (2, 'Lager', 6.0), (3, 'Porter', 11.0), (4, 'Cider', 14.0)`)

	st, err := Select("Drinks").
		Columns("Name").
		Where("PricePerLiter", "<", 12.0).
		OrderBy("PricePerLiter", Desc).
		Limit(2).
		Offset(1).
		Build()
	require.NoError(t, err)

	cur := conn.Query(st)
	defer cur.Close()
	require.NoError(t, cur.Err())

	var names []string
	for ; cur.Valid(); cur.Next() {
		s, err := cur.ColumnString(0)
		require.NoError(t, err)
		names = append(names, s)
	}
	assert.Equal(t, []string{"Stout", "Lager"}, names)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"Drinks"`, QuoteIdent("Drinks"))
	assert.Equal(t, `"Order Items"`, QuoteIdent("Order Items"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}
