// Package brewery holds the table mediators of the brewery schema: thin,
// per-table wrappers that turn domain calls into bound statements and hand
// back cursors.
package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Brewery groups every mediator over one Querier.
type Brewery struct {
	Drinks            *Drinks
	Goblets           *Goblets
	Waiters           *Waiters
	OrdersLog         *OrdersLog
	DrinkOrders       *DrinkOrders
	Addresses         *Addresses
	Sources           *Sources
	Ingredients       *Ingredients
	IngredientsDrinks *IngredientsDrinks
	Procedures        *Procedures
}

// New wires all mediators to q.
func New(q database.Querier) *Brewery {
	return &Brewery{
		Drinks:            &Drinks{q: q},
		Goblets:           &Goblets{q: q},
		Waiters:           &Waiters{q: q},
		OrdersLog:         &OrdersLog{q: q},
		DrinkOrders:       &DrinkOrders{q: q},
		Addresses:         &Addresses{q: q},
		Sources:           &Sources{q: q},
		Ingredients:       &Ingredients{q: q},
		IngredientsDrinks: &IngredientsDrinks{q: q},
		Procedures:        &Procedures{q: q},
	}
}

// query binds template with q's formatter and compiles it. A template that
// does not fit the formatter yields a failed cursor.
func query(q database.Querier, template string, args ...any) *database.Cursor {
	st, err := q.Formatter().Bind(template, args...)
	if err != nil {
		return database.FailedCursor(err)
	}
	return q.Query(st)
}

func exec(q database.Querier, template string, args ...any) error {
	st, err := q.Formatter().Bind(template, args...)
	if err != nil {
		return err
	}
	return q.Execute(st)
}

// insert runs an INSERT and returns the rowid the engine assigned.
func insert(q database.Querier, template string, args ...any) (int64, error) {
	if err := exec(q, template, args...); err != nil {
		return 0, err
	}
	return q.LastInsertID(), nil
}
