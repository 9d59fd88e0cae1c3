package models

// CreateRegistrationRequest - exhibitor applies to participate in an event
type CreateRegistrationRequest struct {
	EventID int64   `json:"event_id" binding:"required"`
	Note    *string `json:"note,omitempty"`
}

// CreateRegistrationResponse - returned after a registration is created
type CreateRegistrationResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// ReviewRegistrationRequest - organizer approves or rejects a pending registration
type ReviewRegistrationRequest struct {
	RegistrationID int64   `json:"registration_id" binding:"required"`
	Decision       string  `json:"decision" binding:"required"`
	Reason         *string `json:"reason,omitempty"`
}

// SelectStandsRequest - exhibitor replaces the registration's stand set
type SelectStandsRequest struct {
	RegistrationID int64   `json:"registration_id" binding:"required"`
	StandIDs       []int64 `json:"stand_ids"`
	Completed      *bool   `json:"completed,omitempty"`
}

// EquipmentAllocationRequest - one (equipment, quantity) pair
type EquipmentAllocationRequest struct {
	EquipmentID int64 `json:"equipment_id" binding:"required"`
	Quantity    int   `json:"quantity" binding:"required,min=1"`
}

// SelectEquipmentRequest - exhibitor replaces the registration's equipment allocations
type SelectEquipmentRequest struct {
	RegistrationID int64                        `json:"registration_id" binding:"required"`
	Allocations    []EquipmentAllocationRequest `json:"allocations"`
	Completed      *bool                        `json:"completed,omitempty"`
}

// CancelRegistrationRequest - cancel from any non-terminal state
type CancelRegistrationRequest struct {
	RegistrationID int64   `json:"registration_id" binding:"required"`
	Reason         *string `json:"reason,omitempty"`
}

// RegistrationResponse - full registration view with allocated resources
type RegistrationResponse struct {
	Registration
	InvoiceID *int64 `json:"invoice_id,omitempty"`
}

// CreateEventRequest - organizer creates an exhibition event
type CreateEventRequest struct {
	Title                string  `json:"title" binding:"required"`
	Description          *string `json:"description,omitempty"`
	StartDate            string  `json:"start_date" binding:"required"`
	RegistrationDeadline string  `json:"registration_deadline" binding:"required"`
}

// CreateEventResponse - returned after an event is created
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// ListEventsResponseItem - one event in the public listing
type ListEventsResponseItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
}

// CreatePlanRequest - organizer authors a floor plan for an event
type CreatePlanRequest struct {
	EventID int64  `json:"event_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// CreateStandRequest - organizer adds a stand to a floor plan
type CreateStandRequest struct {
	PlanID int64  `json:"plan_id" binding:"required"`
	Number int    `json:"number" binding:"required"`
	Type   string `json:"type,omitempty"`
	Price  int64  `json:"price"`
}

// ListStandsResponseItem - one stand in an availability listing
type ListStandsResponseItem struct {
	ID     int64  `json:"id"`
	PlanID int64  `json:"plan_id"`
	Number int    `json:"number"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Price  string `json:"price"`
}

// CreateEquipmentRequest - organizer adds a catalog SKU
type CreateEquipmentRequest struct {
	Name     string `json:"name" binding:"required"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

// AssociateEquipmentRequest - organizer associates a SKU with an event,
// optionally overriding the catalog price and quantity
type AssociateEquipmentRequest struct {
	EventID       int64  `json:"event_id" binding:"required"`
	EquipmentID   int64  `json:"equipment_id" binding:"required"`
	TotalQuantity int    `json:"total_quantity" binding:"min=0"`
	Price         *int64 `json:"price,omitempty"`
}

// EquipmentAvailabilityResponseItem - remaining capacity of a SKU for an event
type EquipmentAvailabilityResponseItem struct {
	EquipmentID int64  `json:"equipment_id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Total       int    `json:"total"`
	Available   int    `json:"available"`
}

// InvoiceResponse - invoice with formatted amounts and line items
type InvoiceResponse struct {
	ID             int64                 `json:"id"`
	Number         string                `json:"number"`
	RegistrationID int64                 `json:"registration_id"`
	Subtotal       string                `json:"subtotal"`
	TaxRate        float64               `json:"tax_rate"`
	TaxAmount      string                `json:"tax_amount"`
	Total          string                `json:"total"`
	Status         string                `json:"status"`
	Items          []InvoiceItemResponse `json:"items"`
}

// InvoiceItemResponse - one formatted invoice line
type InvoiceItemResponse struct {
	ItemType  string `json:"item_type"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// PaymentNotificationPayload - webhook payload from the payment provider
type PaymentNotificationPayload struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
}
