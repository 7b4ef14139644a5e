package model

import "time"

// Sale channels.  In-person sales are entered by staff and complete
// immediately; online sales are placed by customers and go through the
// tracking pipeline.
const (
    ChannelInPerson = "in_person"
    ChannelOnline   = "online"
)

// Order statuses.  Completed is the terminal state for in-person sales.
// Online orders start pending and move through the tracking statuses;
// cancelled is reachable from any non-terminal state via cancellation.
const (
    StatusPending    = "pending"
    StatusProcessing = "processing"
    StatusShipped    = "shipped"
    StatusDelivered  = "delivered"
    StatusCompleted  = "completed"
    StatusCancelled  = "cancelled"
)

// OrderLine is one purchased title inside an order.  All book fields
// are snapshots copied at order creation; later catalog edits never
// touch them.
type OrderLine struct {
    BookID       uint64  `json:"book_id"`
    Title        string  `json:"title"`
    Author       string  `json:"author"`
    Genre        string  `json:"genre"`
    ISBN         string  `json:"isbn"`
    Quantity     int     `json:"quantity"`
    UnitPrice    float64 `json:"unit_price"`
    LineSubtotal float64 `json:"line_subtotal"`
}

// Order is an immutable record of a sale except for its status.  The
// customer (and, for in-person sales, the staff member) is embedded as
// a snapshot so the order survives later edits or deletions of the
// source records.  Totals are computed once at creation:
// Tax = Subtotal * taxRate, Total = Subtotal + Tax.
//
// Reference is an opaque public identifier customers can use to look
// up tracking without exposing the numeric primary key.
type Order struct {
    ID            uint64      `json:"id"`
    Reference     string      `json:"reference"`
    CustomerID    uint64      `json:"customer_id"`
    CustomerName  string      `json:"customer_name"`
    CustomerEmail string      `json:"customer_email"`
    CustomerPhone string      `json:"customer_phone"`
    StaffID       *uint64     `json:"staff_id,omitempty"`
    StaffName     string      `json:"staff_name,omitempty"`
    Lines         []OrderLine `json:"lines"`
    Subtotal      float64     `json:"subtotal"`
    TaxAmount     float64     `json:"tax_amount"`
    Total         float64     `json:"total"`
    Channel       string      `json:"channel"`
    Status        string      `json:"status"`
    CreatedAt     time.Time   `json:"created_at"`
}

// Subtotal of the given lines.
func SumLines(lines []OrderLine) float64 {
    var s float64
    for _, l := range lines {
        s += l.LineSubtotal
    }
    return s
}
