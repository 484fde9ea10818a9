package prepare

import "time"

// Canonical column names of the prepared order-line table.
const (
	OrderID          = "order_id"
	OrderTimestamp   = "order_timestamp"
	Channel          = "channel"
	Seller           = "seller"
	CategoryCode     = "category_code"
	BuyerName        = "buyer_name"
	BuyerPhone       = "buyer_phone"
	OrderStatus      = "order_status"
	ProductName      = "product_name"
	ClaimNote        = "claim_note"
	LineAmount       = "line_amount"
	SettlementAmount = "settlement_amount"
	Quantity         = "quantity"
	UnitPrice        = "unit_price"

	CustomerKey     = "unique_customer_key"
	CategoryMidCode = "category_mid_code"
	OrderDate       = "order_date"
	Weekday         = "weekday"
	HourOfDay       = "hour_of_day"
)

// StatusCanceled is the order_status value excluded by default.
const StatusCanceled = "canceled"

// NumericColumns are coerced to numbers.
var NumericColumns = []string{LineAmount, SettlementAmount, Quantity, UnitPrice}

// CategoricalColumns are coerced to nullable strings.
var CategoricalColumns = []string{
	OrderID, Channel, Seller, CategoryCode, BuyerName, BuyerPhone,
	OrderStatus, ProductName, ClaimNote,
}

// WeekdayLabels is indexed Monday=0.
var WeekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayIndex maps time.Weekday to the Monday=0 convention.
func WeekdayIndex(wd time.Weekday) int { return (int(wd) + 6) % 7 }
