package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Sources mediates the Sources table: suppliers of ingredients.
// Columns: ID, Name, AddressID.
type Sources struct {
	q database.Querier
}

func (m *Sources) All() *database.Cursor {
	return query(m.q, "SELECT * FROM Sources")
}

func (m *Sources) ByID(id int64) *database.Cursor {
	return query(m.q, "SELECT * FROM Sources WHERE ID = %", id)
}

func (m *Sources) Add(name string, addressID int64) (int64, error) {
	return insert(m.q, "INSERT INTO Sources(Name, AddressID) VALUES('%', %)", name, addressID)
}

func (m *Sources) Clear() error {
	return exec(m.q, "DELETE FROM Sources")
}

func (m *Sources) Size() (int, error) {
	return m.q.Size("Sources")
}

// Addresses mediates the Addresses table.
// Columns: ID, City, House, PostalCode.
type Addresses struct {
	q database.Querier
}

func (m *Addresses) All() *database.Cursor {
	return query(m.q, "SELECT * FROM Addresses")
}

func (m *Addresses) ByID(id int64) *database.Cursor {
	return query(m.q, "SELECT * FROM Addresses WHERE ID = %", id)
}

// Find returns the addresses matching all three fields.
func (m *Addresses) Find(city, house string, postalCode int) *database.Cursor {
	return query(m.q,
		"SELECT * FROM Addresses WHERE City = '%' AND House = '%' AND PostalCode = %",
		city, house, postalCode)
}

// TryAdd inserts the address unless an identical one exists. It returns the
// ID of the stored address and whether this call inserted it.
func (m *Addresses) TryAdd(city, house string, postalCode int) (int64, bool, error) {
	cur := m.Find(city, house, postalCode)
	defer cur.Close()

	if err := cur.Err(); err != nil {
		return 0, false, err
	}
	if cur.Valid() {
		id, err := cur.ColumnInt64(0)
		return id, false, err
	}

	id, err := insert(m.q,
		"INSERT INTO Addresses(City, House, PostalCode) VALUES('%', '%', %)",
		city, house, postalCode)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (m *Addresses) Clear() error {
	return exec(m.q, "DELETE FROM Addresses")
}

func (m *Addresses) Size() (int, error) {
	return m.q.Size("Addresses")
}
