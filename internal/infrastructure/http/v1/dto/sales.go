package dto

import (
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/sales"
)

// --- Requests ---

// SaleItemRequest is one line of a new sale.
type SaleItemRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	// UnitPrice overrides the catalog price when set (negotiated price).
	UnitPrice *string `json:"unitPrice"`
}

// CreateSaleRequest for creating sales.
type CreateSaleRequest struct {
	WarehouseID  string            `json:"warehouseId" binding:"required,uuid"`
	CustomerName string            `json:"customerName"`
	Note         string            `json:"note"`
	Discount     string            `json:"discount"`
	Items        []SaleItemRequest `json:"items" binding:"required,min=1"`
}

// ToInput converts to the domain create input.
func (r *CreateSaleRequest) ToInput() (sales.CreateInput, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return sales.CreateInput{}, apperror.NewValidation("invalid warehouse id").
			WithDetail("field", "warehouseId")
	}

	var discount types.MinorUnits
	if r.Discount != "" {
		if discount, err = ParseMoney("discount", r.Discount); err != nil {
			return sales.CreateInput{}, err
		}
	}

	items := make([]sales.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		productID, err := id.Parse(it.ProductID)
		if err != nil {
			return sales.CreateInput{}, apperror.NewValidation("invalid product id").
				WithDetail("field", "items.productId").
				WithDetail("value", it.ProductID)
		}
		unitPrice, err := ParseOptionalMoney("items.unitPrice", it.UnitPrice)
		if err != nil {
			return sales.CreateInput{}, err
		}
		items = append(items, sales.ItemInput{
			ProductID: productID,
			Quantity:  types.Quantity(it.Quantity),
			UnitPrice: unitPrice,
		})
	}

	return sales.CreateInput{
		WarehouseID:  warehouseID,
		CustomerName: r.CustomerName,
		Note:         r.Note,
		Discount:     discount,
		Items:        items,
	}, nil
}

// SalePaymentRequest for payments and refunds.
type SalePaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
	Note   string `json:"note"`
}

// ToInput converts to the domain payment input.
func (r *SalePaymentRequest) ToInput(saleID id.ID) (sales.PaymentInput, error) {
	amount, err := ParseMoney("amount", r.Amount)
	if err != nil {
		return sales.PaymentInput{}, err
	}
	return sales.PaymentInput{
		SaleID: saleID,
		Amount: amount,
		Method: sales.PaymentMethod(r.Method),
		Note:   r.Note,
	}, nil
}

// --- Responses ---

// SaleItemResponse is one immutable line snapshot.
type SaleItemResponse struct {
	ID          string `json:"id"`
	LineNo      int    `json:"lineNo"`
	ProductID   string `json:"productId"`
	ProductCode string `json:"productCode"`
	ProductName string `json:"productName"`
	Gramaje     string `json:"gramaje,omitempty"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int64  `json:"quantity"`
	LineTotal   string `json:"lineTotal"`
}

// SalePaymentResponse is one payment or refund record.
type SalePaymentResponse struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Method    string    `json:"method"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// SaleResponse represents a sale with relations.
type SaleResponse struct {
	DocumentResponse
	Number        string                 `json:"number"`
	WarehouseID   string                 `json:"warehouseId"`
	CustomerName  string                 `json:"customerName,omitempty"`
	Note          string                 `json:"note,omitempty"`
	Status        string                 `json:"status"`
	Subtotal      string                 `json:"subtotal"`
	Discount      string                 `json:"discount"`
	Total         string                 `json:"total"`
	PaidTotal     string                 `json:"paidTotal"`
	RefundedTotal string                 `json:"refundedTotal"`
	NetPaid       string                 `json:"netPaid"`
	Items         []*SaleItemResponse    `json:"items,omitempty"`
	Payments      []*SalePaymentResponse `json:"payments,omitempty"`
	Refunds       []*SalePaymentResponse `json:"refunds,omitempty"`
}

// FromSale creates response from domain sale.
func FromSale(s *sales.Sale) *SaleResponse {
	resp := &SaleResponse{
		DocumentResponse: FromBaseDocument(s.BaseDocument),
		Number:           s.Number,
		WarehouseID:      s.WarehouseID.String(),
		CustomerName:     s.CustomerName,
		Note:             s.Note,
		Status:           string(s.Status),
		Subtotal:         s.Subtotal.String(),
		Discount:         s.Discount.String(),
		Total:            s.Total.String(),
		PaidTotal:        s.PaidTotal.String(),
		RefundedTotal:    s.RefundedTotal.String(),
		NetPaid:          s.NetPaid().String(),
	}

	for _, it := range s.Items {
		resp.Items = append(resp.Items, &SaleItemResponse{
			ID:          it.ID.String(),
			LineNo:      it.LineNo,
			ProductID:   it.ProductID.String(),
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Gramaje:     it.Gramaje,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice.String(),
			Quantity:    it.Quantity.Int64(),
			LineTotal:   it.LineTotal.String(),
		})
	}
	for _, p := range s.Payments {
		resp.Payments = append(resp.Payments, &SalePaymentResponse{
			ID:        p.ID.String(),
			Amount:    p.Amount.String(),
			Method:    string(p.Method),
			Note:      p.Note,
			CreatedAt: p.CreatedAt,
			CreatedBy: p.CreatedBy,
		})
	}
	for _, ref := range s.Refunds {
		resp.Refunds = append(resp.Refunds, &SalePaymentResponse{
			ID:        ref.ID.String(),
			Amount:    ref.Amount.String(),
			Method:    string(ref.Method),
			Note:      ref.Note,
			CreatedAt: ref.CreatedAt,
			CreatedBy: ref.CreatedBy,
		})
	}

	return resp
}

// FromSales maps a sale list (headers only).
func FromSales(items []*sales.Sale) []*SaleResponse {
	out := make([]*SaleResponse, len(items))
	for i, s := range items {
		out[i] = FromSale(s)
	}
	return out
}
