package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// Tables lists the schema's tables in creation order.
var Tables = []string{
	"Drinks",
	"Goblets",
	"Waiters",
	"OrdersLog",
	"DrinkOrders",
	"Addresses",
	"Sources",
	"Ingredients",
	"IngredientsDrinks",
}

// Column order is part of the contract: cursors are read positionally.
const ddl = `
CREATE TABLE IF NOT EXISTS Drinks(
	ID             INTEGER PRIMARY KEY,
	Name           TEXT NOT NULL,
	PricePerLiter  REAL NOT NULL,
	AgeRestriction INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS Goblets(
	ID       INTEGER PRIMARY KEY,
	Name     TEXT NOT NULL,
	Capacity REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS Waiters(
	ID        INTEGER PRIMARY KEY,
	ShortName TEXT NOT NULL,
	Salary    REAL NOT NULL,
	FullAge   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS OrdersLog(
	ID                INTEGER PRIMARY KEY,
	CustomerShortName TEXT NOT NULL,
	Tips              REAL NOT NULL DEFAULT 0,
	WaiterID          INTEGER REFERENCES Waiters(ID)
);
CREATE TABLE IF NOT EXISTS DrinkOrders(
	OrderID  INTEGER REFERENCES OrdersLog(ID),
	DrinkID  INTEGER REFERENCES Drinks(ID),
	GobletID INTEGER REFERENCES Goblets(ID)
);
CREATE TABLE IF NOT EXISTS Addresses(
	ID         INTEGER PRIMARY KEY,
	City       TEXT NOT NULL,
	House      TEXT NOT NULL,
	PostalCode INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS Sources(
	ID        INTEGER PRIMARY KEY,
	Name      TEXT NOT NULL,
	AddressID INTEGER REFERENCES Addresses(ID)
);
CREATE TABLE IF NOT EXISTS Ingredients(
	ID           INTEGER PRIMARY KEY,
	Name         TEXT NOT NULL,
	Units        TEXT NOT NULL,
	SourceID     INTEGER REFERENCES Sources(ID),
	PricePerUnit REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS IngredientsDrinks(
	IngredientID INTEGER REFERENCES Ingredients(ID),
	UnitsCount   REAL NOT NULL,
	DrinkID      INTEGER REFERENCES Drinks(ID)
);
`

// CreateSchema creates any missing brewery table. Existing tables and their
// rows are left alone.
func CreateSchema(q database.Querier) error {
	return q.Execute(database.Raw(ddl))
}
