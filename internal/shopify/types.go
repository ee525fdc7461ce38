package shopify

// Order is the downstream platform's order payload, limited to the
// fields the export and the write-back paths consume.
type Order struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	CreatedAt       string     `json:"created_at"`
	FinancialStatus string     `json:"financial_status"`
	CancelledAt     *string    `json:"cancelled_at"`
	Tags            string     `json:"tags"`
	TotalPrice      string     `json:"total_price"`
	Customer        *Customer  `json:"customer"`
	BillingAddress  *Address   `json:"billing_address"`
	ShippingAddress *Address   `json:"shipping_address"`
	LineItems       []LineItem `json:"line_items"`
	Refunds         []Refund   `json:"refunds"`
}

type Address struct {
	Name         string `json:"name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Company      string `json:"company"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	ProvinceCode string `json:"province_code"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

type Customer struct {
	ID             int64    `json:"id"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	DefaultAddress *Address `json:"default_address"`
}

type LineItem struct {
	Title        string `json:"title"`
	VariantTitle string `json:"variant_title"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
}

type Refund struct {
	ID              int64            `json:"id"`
	RefundLineItems []RefundLineItem `json:"refund_line_items"`
}

// RefundLineItem's RestockType distinguishes a true return ("return")
// from cancel/no_restock refunds.
type RefundLineItem struct {
	RestockType string `json:"restock_type"`
	Quantity    int    `json:"quantity"`
}

// TrackingInfo is attached to a fulfillment on the downstream platform.
type TrackingInfo struct {
	Company string `json:"company"`
	Number  string `json:"number"`
	URL     string `json:"url"`
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

type customerResponse struct {
	Customer *Customer `json:"customer"`
}

type fulfillmentOrdersResponse struct {
	FulfillmentOrders []struct {
		ID int64 `json:"id"`
	} `json:"fulfillment_orders"`
}
