package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Ingredients mediates the Ingredients table.
// Columns: ID, Name, Units, SourceID, PricePerUnit.
type Ingredients struct {
	q database.Querier
}

func (m *Ingredients) All() *database.Cursor {
	return query(m.q, "SELECT * FROM Ingredients")
}

func (m *Ingredients) ByID(id int64) *database.Cursor {
	return query(m.q, "SELECT * FROM Ingredients WHERE ID = %", id)
}

// Add registers an ingredient supplied by sourceID and returns its ID.
// PricePerUnit keeps its column default until SetPrice is called.
func (m *Ingredients) Add(name, units string, sourceID int64) (int64, error) {
	return insert(m.q,
		"INSERT INTO Ingredients(Name, Units, SourceID) VALUES('%', '%', %)",
		name, units, sourceID)
}

// SetPrice updates the price of one unit of an ingredient.
func (m *Ingredients) SetPrice(id int64, price float64) error {
	return exec(m.q, "UPDATE Ingredients SET PricePerUnit = % WHERE ID = %", price, id)
}

func (m *Ingredients) Clear() error {
	return exec(m.q, "DELETE FROM Ingredients")
}

func (m *Ingredients) Size() (int, error) {
	return m.q.Size("Ingredients")
}

// IngredientsDrinks mediates the recipe table linking ingredients to drinks.
// Columns: IngredientID, UnitsCount, DrinkID.
type IngredientsDrinks struct {
	q database.Querier
}

func (m *IngredientsDrinks) All() *database.Cursor {
	return query(m.q, "SELECT * FROM IngredientsDrinks")
}

// ByDrink returns the recipe of one drink.
func (m *IngredientsDrinks) ByDrink(drinkID int64) *database.Cursor {
	return query(m.q, "SELECT * FROM IngredientsDrinks WHERE DrinkID = %", drinkID)
}

func (m *IngredientsDrinks) Add(ingredientID int64, units float64, drinkID int64) error {
	return exec(m.q,
		"INSERT INTO IngredientsDrinks(IngredientID, UnitsCount, DrinkID) VALUES(%, %, %)",
		ingredientID, units, drinkID)
}

func (m *IngredientsDrinks) Clear() error {
	return exec(m.q, "DELETE FROM IngredientsDrinks")
}
