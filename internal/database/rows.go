package database

// ScanRows reads the rows of cur, starting at its current row, into a slice
// of maps keyed by column name. Values keep their dynamic SQLite type.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the cursor.
func ScanRows(cur *Cursor) ([]map[string]any, error) {
	defer cur.Close()

	if err := cur.Err(); err != nil {
		return nil, err
	}

	columns := cur.ColumnNames()
	result := make([]map[string]any, 0)

	for ; cur.Valid(); cur.Next() {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v, err := cur.Value(i)
			if err != nil {
				return nil, err
			}
			row[col] = v
		}
		result = append(result, row)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ScanTable is ScanRows that also returns the column order, which a map
// cannot carry.
func ScanTable(cur *Cursor) ([]string, []map[string]any, error) {
	columns := cur.ColumnNames()
	rows, err := ScanRows(cur)
	return columns, rows, err
}
