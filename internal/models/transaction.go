package models

import "time"

// Transaction is one row of the sales table. Money fields are rounded to
// cents and Revenue, TotalCost and TotalProfit are derived from the unit
// values so that Revenue = Price*Quantity and TotalProfit = Revenue-TotalCost.
type Transaction struct {
	Date             time.Time `json:"date"`
	Product          string    `json:"product"`
	Category         string    `json:"category"`
	Quantity         int       `json:"quantity"`
	Price            float64   `json:"price"`
	Cost             float64   `json:"cost"`
	Profit           float64   `json:"profit"`
	Revenue          float64   `json:"revenue"`
	TotalCost        float64   `json:"total_cost"`
	TotalProfit      float64   `json:"total_profit"`
	MarketingChannel string    `json:"marketing_channel"`
	CustomerID       string    `json:"customer_id"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	TransactionID    string    `json:"transaction_id"`
}

type InventoryRecord struct {
	Product         string    `json:"product"`
	Category        string    `json:"category"`
	CurrentStock    int       `json:"current_stock"`
	ReorderPoint    int       `json:"reorder_point"`
	MaxStock        int       `json:"max_stock"`
	AvgDailySales   int       `json:"avg_daily_sales"`
	DaysOfInventory float64   `json:"days_of_inventory"`
	UnitCost        float64   `json:"unit_cost"`
	UnitPrice       float64   `json:"unit_price"`
	LastRestocked   time.Time `json:"last_restocked"`
	Supplier        string    `json:"supplier"`
}

// NeedsRestock reports whether stock has fallen to the reorder point.
func (r InventoryRecord) NeedsRestock() bool {
	return r.CurrentStock <= r.ReorderPoint
}
