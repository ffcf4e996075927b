package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Goblets mediates the Goblets table.
// Columns: ID, Name, Capacity.
type Goblets struct {
	q database.Querier
}

func (m *Goblets) All() *database.Cursor {
	return query(m.q, "SELECT * FROM Goblets")
}

func (m *Goblets) ByID(id int64) *database.Cursor {
	return query(m.q, "SELECT * FROM Goblets WHERE ID = %", id)
}

func (m *Goblets) ByName(name string) *database.Cursor {
	return query(m.q, "SELECT * FROM Goblets WHERE Name = '%'", name)
}

// Add inserts a goblet and returns its new ID.
func (m *Goblets) Add(name string, capacity float64) (int64, error) {
	return insert(m.q, "INSERT INTO Goblets(Name, Capacity) VALUES('%', %)", name, capacity)
}

func (m *Goblets) Clear() error {
	return exec(m.q, "DELETE FROM Goblets")
}

func (m *Goblets) Size() (int, error) {
	return m.q.Size("Goblets")
}
