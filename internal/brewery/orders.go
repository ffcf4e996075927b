package brewery

import (
	"github.com/koustreak/brewery/internal/database"
)

// OrdersLog mediates the OrdersLog table.
// Columns: ID, CustomerShortName, Tips, WaiterID.
type OrdersLog struct {
	q database.Querier
}

func (m *OrdersLog) All() *database.Cursor {
	return query(m.q, "SELECT * FROM OrdersLog")
}

func (m *OrdersLog) ByID(id int64) *database.Cursor {
	return query(m.q, "SELECT * FROM OrdersLog WHERE ID = %", id)
}

// Add records an order served by waiterID and returns the order ID.
func (m *OrdersLog) Add(customer string, tips float64, waiterID int64) (int64, error) {
	return insert(m.q,
		"INSERT INTO OrdersLog(CustomerShortName, Tips, WaiterID) VALUES('%', %, %)",
		customer, tips, waiterID)
}

func (m *OrdersLog) Clear() error {
	return exec(m.q, "DELETE FROM OrdersLog")
}

func (m *OrdersLog) Size() (int, error) {
	return m.q.Size("OrdersLog")
}

// DrinkOrders mediates the DrinkOrders link table: which drink was poured
// into which goblet for an order.
// Columns: OrderID, DrinkID, GobletID.
type DrinkOrders struct {
	q database.Querier
}

// ByOrder returns the lines of one order.
func (m *DrinkOrders) ByOrder(orderID int64) *database.Cursor {
	return query(m.q, "SELECT * FROM DrinkOrders WHERE OrderID = %", orderID)
}

func (m *DrinkOrders) Add(orderID, drinkID, gobletID int64) error {
	return exec(m.q,
		"INSERT INTO DrinkOrders(OrderID, DrinkID, GobletID) VALUES(%, %, %)",
		orderID, drinkID, gobletID)
}

func (m *DrinkOrders) Clear() error {
	return exec(m.q, "DELETE FROM DrinkOrders")
}
