package qikink

// Order is the upstream order payload. The engine consumes only the
// fields below; everything else the API returns is ignored rather than
// validated.
type Order struct {
	OrderID     float64    `json:"order_id"`
	Number      string     `json:"number"`
	Status      string     `json:"status"`
	PaymentType string     `json:"payment_type"`
	TotalValue  string     `json:"total_order_value"`
	CreatedOn   string     `json:"created_on"`
	LiveDate    string     `json:"live_date"`
	Shipping    Shipping   `json:"shipping"`
	LineItems   []LineItem `json:"line_items"`
}

// Shipping carries the courier sub-record. AWB is a pointer because the
// API sends an explicit null until the order ships; a non-nil AWB is
// the signal that tracking data exists.
type Shipping struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	CourierName  string  `json:"courier_provider_name"`
	AWB          *string `json:"awb"`
	TrackingLink string  `json:"tracking_link"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
	Address1     string  `json:"address1"`
	City         string  `json:"city"`
	Province     string  `json:"province"`
	Zip          string  `json:"zip"`
	CountryCode  string  `json:"country_code"`
}

type LineItem struct {
	SKU      string   `json:"sku"`
	Quantity string   `json:"quantity"`
	Price    string   `json:"price"`
	Designs  []Design `json:"designs"`
}

type Design struct {
	DesignCode   string `json:"design_code"`
	Placement    string `json:"placement"`
	DesignURL    string `json:"design_url"`
	MockupURL    string `json:"mockup_url"`
	WidthInches  string `json:"width_inches"`
	HeightInches string `json:"height_inches"`
	PrintingCost string `json:"printing_cost"`
}

// HasTracking reports whether the shipment carries an AWB.
func (o Order) HasTracking() bool {
	return o.Shipping.AWB != nil && *o.Shipping.AWB != ""
}

// CustomerName joins the shipping first/last name.
func (o Order) CustomerName() string {
	name := o.Shipping.FirstName
	if o.Shipping.LastName != "" {
		if name != "" {
			name += " "
		}
		name += o.Shipping.LastName
	}
	return name
}

type tokenResponse struct {
	AccessToken string `json:"Accesstoken"`
}
