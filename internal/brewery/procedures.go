package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Procedures holds the canned cross-table reports.
type Procedures struct {
	q database.Querier
}

// SourcesInCity returns the sources whose address is in city.
func (p *Procedures) SourcesInCity(city string) *database.Cursor {
	return query(p.q,
		"SELECT * FROM Sources WHERE AddressID IN (SELECT ID FROM Addresses WHERE City = '%')",
		city)
}

// ExpensiveWaiters returns the waiters earning strictly more than limit.
func (p *Procedures) ExpensiveWaiters(limit float64) *database.Cursor {
	return query(p.q, "SELECT * FROM Waiters WHERE Salary > %", limit)
}

// DrinksWith returns the drinks whose recipe uses the named ingredient.
func (p *Procedures) DrinksWith(ingredient string) *database.Cursor {
	return query(p.q,
		"SELECT * FROM Drinks WHERE ID IN "+
			"(SELECT DrinkID FROM IngredientsDrinks WHERE IngredientID IN "+
			"(SELECT ID FROM Ingredients WHERE Name = '%'))",
		ingredient)
}

// IngredientsCheaperThan returns ingredients priced strictly below price.
func (p *Procedures) IngredientsCheaperThan(price float64) *database.Cursor {
	return query(p.q, "SELECT * FROM Ingredients WHERE PricePerUnit < %", price)
}

// GobletsLargerThan returns goblets holding strictly more than capacity.
func (p *Procedures) GobletsLargerThan(capacity float64) *database.Cursor {
	return query(p.q, "SELECT * FROM Goblets WHERE Capacity > %", capacity)
}
