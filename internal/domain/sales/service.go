package sales

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/domain/stock"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// ProductLookup resolves products for line snapshots. Read-only.
type ProductLookup interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// StockApplier applies stock movements. Calls made inside a sale transaction
// join it, so a failed line rolls the whole sale back.
type StockApplier interface {
	ApplyMovement(ctx context.Context, input stock.MovementInput) (*stock.Movement, error)
}

// Reference types written on stock movements caused by sales.
const (
	refSale       = "sale"
	refSaleCancel = "sale_cancel"
)

// Service drives the sale lifecycle.
type Service struct {
	repo      Repository
	products  ProductLookup
	stock     StockApplier
	txManager tx.Manager
	numerator *numerator.Service
}

// NewService creates a new sales service.
func NewService(repo Repository, products ProductLookup, stockSvc StockApplier, txManager tx.Manager, num *numerator.Service) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		stock:     stockSvc,
		txManager: txManager,
		numerator: num,
	}
}

// Create posts a new sale: inserts the header, fulfills every line with an
// OUT stock movement, snapshots the lines, and computes totals.
//
// All-or-nothing: a failure on any line (missing product, inactive product,
// insufficient stock) rolls back the header and every prior line's stock
// effect, so partial fulfillment is never visible.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Sale, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("VTA"), time.Now())
		if err != nil {
			return fmt.Errorf("generate sale number: %w", err)
		}

		sale = &Sale{
			BaseDocument: entity.NewBaseDocument(appctx.Actor(ctx)),
			Number:       number,
			WarehouseID:  input.WarehouseID,
			CustomerName: input.CustomerName,
			Note:         input.Note,
			Status:       StatusOpen,
			Discount:     input.Discount,
		}
		if err := s.repo.Create(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		items, subtotal, err := s.fulfillLines(ctx, sale, input.Items)
		if err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, items); err != nil {
			return fmt.Errorf("insert sale items: %w", err)
		}

		sale.Subtotal = subtotal
		sale.Total = subtotal - sale.Discount
		if sale.Total.IsNegative() {
			sale.Total = 0
		}
		sale.Items = items

		if err := s.repo.Update(ctx, sale); err != nil {
			return fmt.Errorf("update sale totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale created",
		"sale_id", sale.ID,
		"number", sale.Number,
		"items", len(sale.Items),
		"total", sale.Total.String())

	// Re-read so the caller sees the stored row, including the version
	// bumped by the totals update.
	return s.GetByID(ctx, sale.ID)
}

// fulfillLines applies one OUT movement per line, in input order, and builds
// the immutable snapshots. Lock order therefore follows input order, which
// keeps concurrent sales on disjoint products non-blocking.
func (s *Service) fulfillLines(ctx context.Context, sale *Sale, inputs []ItemInput) ([]*Item, types.MinorUnits, error) {
	items := make([]*Item, 0, len(inputs))
	var subtotal types.MinorUnits

	for i, in := range inputs {
		prod, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return nil, 0, err
		}
		if !prod.Sellable() {
			return nil, 0, apperror.NewInvalidInput("product is not sellable").
				WithDetail("product_id", in.ProductID.String()).
				WithDetail("line", i+1)
		}

		unitPrice := prod.Price
		if in.UnitPrice != nil {
			unitPrice = *in.UnitPrice
		}

		if _, err := s.stock.ApplyMovement(ctx, stock.MovementInput{
			WarehouseID: sale.WarehouseID,
			ProductID:   in.ProductID,
			Kind:        stock.MovementOut,
			Quantity:    in.Quantity,
			RefType:     refSale,
			RefID:       sale.ID.String(),
		}); err != nil {
			return nil, 0, err
		}

		lineTotal := types.MinorUnits(int64(unitPrice) * in.Quantity.Int64())
		items = append(items, &Item{
			ID:          id.New(),
			SaleID:      sale.ID,
			LineNo:      i + 1,
			ProductID:   prod.ID,
			ProductCode: prod.Code,
			ProductName: prod.Name,
			Gramaje:     prod.Gramaje,
			Unit:        prod.Unit,
			UnitPrice:   unitPrice,
			Quantity:    in.Quantity,
			LineTotal:   lineTotal,
		})
		subtotal += lineTotal
	}

	return items, subtotal, nil
}

// AddPayment appends a payment under the sale row lock and flips the sale to
// PAID once payments cover the total. Overpayment is accepted.
func (s *Service) AddPayment(ctx context.Context, input PaymentInput) (*Sale, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.getLocked(ctx, input.SaleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return apperror.NewSaleCancelled(sale.ID.String())
		}

		payment := &Payment{
			ID:        id.New(),
			SaleID:    sale.ID,
			Amount:    input.Amount,
			Method:    input.Method,
			Note:      input.Note,
			CreatedAt: time.Now().UTC(),
			CreatedBy: appctx.Actor(ctx),
		}
		if err := s.repo.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert sale payment: %w", err)
		}

		sale.PaidTotal += input.Amount
		if sale.PaidTotal >= sale.Total {
			sale.Status = StatusPaid
		}
		sale.UpdatedBy = appctx.Actor(ctx)
		if err := s.repo.Update(ctx, sale); err != nil {
			return fmt.Errorf("update sale after payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, input.SaleID)
}

// AddRefund appends a refund under the sale row lock. Refunds never move the
// status back to OPEN and are not blocked on cancelled sales; net paid is a
// display figure only.
func (s *Service) AddRefund(ctx context.Context, input PaymentInput) (*Sale, error) {
	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.getLocked(ctx, input.SaleID)
		if err != nil {
			return err
		}

		refund := &Refund{
			ID:        id.New(),
			SaleID:    sale.ID,
			Amount:    input.Amount,
			Method:    input.Method,
			Note:      input.Note,
			CreatedAt: time.Now().UTC(),
			CreatedBy: appctx.Actor(ctx),
		}
		if err := s.repo.InsertRefund(ctx, refund); err != nil {
			return fmt.Errorf("insert sale refund: %w", err)
		}

		sale.RefundedTotal += input.Amount
		sale.UpdatedBy = appctx.Actor(ctx)
		if err := s.repo.Update(ctx, sale); err != nil {
			return fmt.Errorf("update sale after refund: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, input.SaleID)
}

// Cancel flips the sale to CANCELLED and restores every line's stock with an
// IN movement, in the same transaction as the guard checks.
//
// Only sales with zero payments can be cancelled; money must be refunded
// through AddRefund before cancellation.
func (s *Service) Cancel(ctx context.Context, saleID id.ID) (*Sale, error) {
	if id.IsNil(saleID) {
		return nil, apperror.NewValidation("sale is required").WithDetail("field", "saleId")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.getLocked(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return apperror.NewSaleCancelled(sale.ID.String())
		}
		if sale.PaidTotal.IsPositive() {
			return apperror.NewSaleHasPayments(sale.ID.String(), int64(sale.PaidTotal))
		}

		items, err := s.repo.ListItems(ctx, saleID)
		if err != nil {
			return fmt.Errorf("list sale items: %w", err)
		}
		for _, item := range items {
			if _, err := s.stock.ApplyMovement(ctx, stock.MovementInput{
				WarehouseID: sale.WarehouseID,
				ProductID:   item.ProductID,
				Kind:        stock.MovementIn,
				Quantity:    item.Quantity,
				RefType:     refSaleCancel,
				RefID:       sale.ID.String(),
			}); err != nil {
				return err
			}
		}

		sale.Status = StatusCancelled
		sale.UpdatedBy = appctx.Actor(ctx)
		if err := s.repo.Update(ctx, sale); err != nil {
			return fmt.Errorf("update sale after cancel: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale cancelled", "sale_id", saleID)

	return s.GetByID(ctx, saleID)
}

// GetByID returns the sale with items, payments and refunds.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, err
	}
	return sale, nil
}

// List returns sale headers, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Sale, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) getLocked(ctx context.Context, saleID id.ID) (*Sale, error) {
	sale, err := s.repo.GetForUpdate(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("lock sale: %w", err)
	}
	return sale, nil
}
