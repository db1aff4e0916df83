package sampledb

// SmokeQuery is a fixed statement used to check that a seeded database
// answers the kinds of questions the pipeline is expected to handle.
type SmokeQuery struct {
	Name string
	SQL  string
}

var SmokeQueries = []SmokeQuery{
	{
		Name: "all users",
		SQL:  `SELECT * FROM users`,
	},
	{
		Name: "products",
		SQL:  `SELECT name, price, category, stock FROM products`,
	},
	{
		Name: "users with orders",
		SQL: `SELECT u.name AS user_name, p.name AS product_name, o.quantity, o.total_price
FROM orders o
JOIN users u ON o.user_id = u.id
JOIN products p ON o.product_id = p.id`,
	},
	{
		Name: "total sales per product",
		SQL: `SELECT p.name, SUM(o.quantity) AS total_quantity, SUM(o.total_price) AS total_revenue
FROM orders o
JOIN products p ON o.product_id = p.id
GROUP BY p.name
ORDER BY total_revenue DESC`,
	},
}
