package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Waiters mediates the Waiters table.
// Columns: ID, ShortName, Salary, FullAge.
type Waiters struct {
	q database.Querier
}

func (m *Waiters) All() *database.Cursor {
	return query(m.q, "SELECT * FROM Waiters")
}

func (m *Waiters) ByID(id int64) *database.Cursor {
	return query(m.q, "SELECT * FROM Waiters WHERE ID = %", id)
}

// ByName looks a waiter up by short name.
func (m *Waiters) ByName(name string) *database.Cursor {
	return query(m.q, "SELECT * FROM Waiters WHERE ShortName = '%'", name)
}

// Add hires a waiter and returns the new ID.
func (m *Waiters) Add(name string, salary float64, age int) (int64, error) {
	return insert(m.q,
		"INSERT INTO Waiters(ShortName, Salary, FullAge) VALUES('%', %, %)",
		name, salary, age)
}

// Exists reports whether a waiter with this short name is on staff.
func (m *Waiters) Exists(name string) (bool, error) {
	cur := m.ByName(name)
	defer cur.Close()
	return cur.Valid(), cur.Err()
}

func (m *Waiters) Clear() error {
	return exec(m.q, "DELETE FROM Waiters")
}

func (m *Waiters) Size() (int, error) {
	return m.q.Size("Waiters")
}
