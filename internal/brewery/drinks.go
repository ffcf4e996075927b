package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Drinks mediates the Drinks table.
// Columns: ID, Name, PricePerLiter, AgeRestriction.
type Drinks struct {
	q database.Querier
}

// All returns every drink.
func (m *Drinks) All() *database.Cursor {
	return query(m.q, "SELECT * FROM Drinks")
}

// ByID returns the drink with the given ID.
func (m *Drinks) ByID(id int64) *database.Cursor {
	return query(m.q, "SELECT * FROM Drinks WHERE ID = %", id)
}

// ByName returns drinks with exactly this name.
func (m *Drinks) ByName(name string) *database.Cursor {
	return query(m.q, "SELECT * FROM Drinks WHERE Name = '%'", name)
}

// Add inserts a drink under a caller-chosen ID.
func (m *Drinks) Add(id int64, name string, pricePerLiter float64, ageRestriction int) error {
	return exec(m.q,
		"INSERT INTO Drinks(ID, Name, PricePerLiter, AgeRestriction) VALUES(%, '%', %, %)",
		id, name, pricePerLiter, ageRestriction)
}

// Clear deletes every drink.
func (m *Drinks) Clear() error {
	return exec(m.q, "DELETE FROM Drinks")
}

// Size returns the number of drinks.
func (m *Drinks) Size() (int, error) {
	return m.q.Size("Drinks")
}
