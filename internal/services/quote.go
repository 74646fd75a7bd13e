// Package services holds the business operations behind the HTTP handlers.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/models"
	"github.com/mfarias/cotizador/internal/pricing"
	"github.com/mfarias/cotizador/internal/workflow"
)

var (
	// ErrTransactionAborted wraps any failure raised mid-save. The whole
	// quote write rolls back; nothing is partially persisted.
	ErrTransactionAborted = errors.New("quote save aborted")

	// ErrNotEditable means the quote's workflow state forbids edits.
	ErrNotEditable = errors.New("quote is not editable")

	// ErrTooManyItems means the quote exceeds the line-item cap.
	ErrTooManyItems = fmt.Errorf("quote exceeds %d line items", pricing.MaxLineItems)
)

// QuotePageSize is the fixed page size of quote listings.
const QuotePageSize = 6

type LineItemInput struct {
	ProductID    uint `json:"product_id" validate:"required"`
	Discount     int  `json:"discount" validate:"gte=0,lte=100"`
	ProfitMargin int  `json:"profit_margin" validate:"gte=0,lte=100"`
	Quantity     int  `json:"quantity" validate:"gte=1,lte=500"`
}

type QuoteInput struct {
	PublicID   int64           `json:"public_id" validate:"required"`
	ClientID   uint            `json:"client_id" validate:"required"`
	SalesRepID uint            `json:"sales_rep_id" validate:"required"`
	Currency   string          `json:"currency" validate:"omitempty,oneof=USD CLP UF"`
	Items      []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// QuoteFilter narrows quote listings. Zero values mean "no filter".
type QuoteFilter struct {
	PublicID   int64
	Client     string
	Date       string // YYYY-MM-DD, matches last-modified day
	Status     string
	SalesRepID uint
	Page       int
}

type QuoteService struct {
	db       *gorm.DB
	log      *logrus.Logger
	validate *validator.Validate
}

func NewQuoteService(db *gorm.DB, log *logrus.Logger) *QuoteService {
	return &QuoteService{db: db, log: log, validate: validator.New()}
}

// GenerateTempPublicID produces a provisional public id for a new quote form.
func GenerateTempPublicID() int64 {
	return time.Now().Unix()*1000000 + rand.Int63n(1000000)
}

// Create persists a new quote with its line items in one transaction.
func (s *QuoteService) Create(ctx context.Context, in QuoteInput) (*models.Quote, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	quote := &models.Quote{
		PublicID:   in.PublicID,
		ClientID:   in.ClientID,
		SalesRepID: in.SalesRepID,
		Currency:   currencyOrDefault(in.Currency),
		Status:     models.StatusPending,
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quote).Error; err != nil {
			return err
		}
		return s.saveItems(tx, quote, in.Items)
	}); err != nil {
		s.log.WithError(err).WithField("public_id", in.PublicID).Error("quote create rolled back")
		return nil, fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}
	s.log.WithFields(logrus.Fields{"quote": quote.ID, "public_id": quote.PublicID}).Info("quote saved")
	return s.Get(ctx, quote.ID)
}

// Update rewrites an editable quote's header and line items in one
// transaction. Line-item rows not present in the input are deleted.
func (s *QuoteService) Update(ctx context.Context, id uint, in QuoteInput) (*models.Quote, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.Editable(quote) {
		return nil, ErrNotEditable
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote.PublicID = in.PublicID
		quote.ClientID = in.ClientID
		quote.SalesRepID = in.SalesRepID
		quote.Currency = currencyOrDefault(in.Currency)
		if err := tx.Model(quote).Select("public_id", "client_id", "sales_rep_id", "currency").
			Updates(map[string]any{
				"public_id":    quote.PublicID,
				"client_id":    quote.ClientID,
				"sales_rep_id": quote.SalesRepID,
				"currency":     quote.Currency,
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return s.saveItems(tx, quote, in.Items)
	}); err != nil {
		s.log.WithError(err).WithField("quote", id).Error("quote update rolled back")
		return nil, fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	}
	return s.Get(ctx, id)
}

// saveItems prices and writes the line items, then runs the post-save hook
// that recomputes the persisted totals and the auto-approval check. Runs
// inside the caller's transaction.
func (s *QuoteService) saveItems(tx *gorm.DB, quote *models.Quote, items []LineItemInput) error {
	if len(items) > pricing.MaxLineItems {
		return ErrTooManyItems
	}
	quote.Items = quote.Items[:0]
	for pos, in := range items {
		var product models.Product
		if err := tx.First(&product, in.ProductID).Error; err != nil {
			return fmt.Errorf("line %d: product %d: %w", pos, in.ProductID, err)
		}
		// Prices submitted by the client are never trusted; the engine is
		// re-invoked on every save.
		unit, subtotal, err := pricing.PriceLineItem(pricing.Input{
			BasePrice:    product.Price,
			Discount:     in.Discount,
			ProfitMargin: in.ProfitMargin,
			Quantity:     in.Quantity,
		})
		if err != nil {
			return fmt.Errorf("line %d: %w", pos, err)
		}
		item := models.LineItem{
			QuoteID:      quote.ID,
			ProductID:    product.ID,
			Position:     pos,
			Discount:     in.Discount,
			ProfitMargin: in.ProfitMargin,
			Quantity:     in.Quantity,
			UnitPrice:    unit,
			Subtotal:     subtotal,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		quote.Items = append(quote.Items, item)
	}
	if err := s.recomputeTotals(tx, quote); err != nil {
		return err
	}
	if workflow.AutoApprove(quote) {
		s.log.WithField("quote", quote.ID).Info("quote auto-approved, no discounted items")
		if err := tx.Model(quote).Select("status", "approver_id").
			Updates(map[string]any{"status": quote.Status, "approver_id": quote.ApproverID}).Error; err != nil {
			return err
		}
	}
	return nil
}

// recomputeTotals is the explicit post-save hook: the persisted total is
// always the sum of the saved line-item subtotals, never the edit-session
// preview.
func (s *QuoteService) recomputeTotals(tx *gorm.DB, quote *models.Quote) error {
	var net int64
	if err := tx.Model(&models.LineItem{}).
		Where("quote_id = ?", quote.ID).
		Select("COALESCE(SUM(subtotal), 0)").
		Scan(&net).Error; err != nil {
		return err
	}
	tax := pricing.Tax(net)
	quote.TotalNet, quote.Tax, quote.TotalFinal = net, tax, net+tax
	return tx.Model(quote).Select("total_net", "tax", "total_final").
		Updates(map[string]any{"total_net": net, "tax": tax, "total_final": net + tax}).Error
}

// Get loads a quote with its items in form order and all references.
func (s *QuoteService) Get(ctx context.Context, id uint) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Items.Product").
		Preload("Client.Entity").
		Preload("SalesRep").
		Preload("Approver").
		First(&quote, id).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// List returns one page of quotes plus the unpaged match count. REP callers
// are scoped to their own quotes; managerial roles see everything.
func (s *QuoteService) List(ctx context.Context, rep *models.SalesRep, f QuoteFilter) ([]models.Quote, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Quote{})
	if rep != nil && !rep.IsManagerial() {
		q = q.Where("sales_rep_id = ?", rep.ID)
	} else if f.SalesRepID != 0 {
		q = q.Where("sales_rep_id = ?", f.SalesRepID)
	}
	if f.PublicID != 0 {
		q = q.Where("public_id = ?", f.PublicID)
	}
	if f.Client != "" {
		q = q.Joins("JOIN clients ON clients.id = quotes.client_id").
			Where(`lower(clients.name) LIKE ? ESCAPE '\'`, "%"+strings.ToLower(likeEscape(f.Client))+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Date != "" {
		day, err := time.Parse("2006-01-02", f.Date)
		if err == nil {
			q = q.Where("updated_at >= ? AND updated_at < ?", day, day.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	var quotes []models.Quote
	err := q.Preload("Client.Entity").Preload("SalesRep").
		Order("quotes.id desc").
		Limit(QuotePageSize).
		Offset((page - 1) * QuotePageSize).
		Find(&quotes).Error
	return quotes, total, err
}

// Delete removes a quote and, through the cascade, its line items.
func (s *QuoteService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Quote{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// SetStatus applies a workflow action. Actions on a closed quote are
// silently ignored and return the quote unchanged.
func (s *QuoteService) SetStatus(ctx context.Context, id uint, action string, actor *models.SalesRep) (*models.Quote, error) {
	quote, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch action {
	case "approve":
		workflow.Approve(quote, actor)
	case "reject":
		workflow.Reject(quote, actor)
	case "close":
		workflow.Close(quote)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", pricing.ErrInvalidInput, action)
	}
	if err := s.db.WithContext(ctx).Model(quote).Select("status", "approver_id").
		Updates(map[string]any{"status": quote.Status, "approver_id": quote.ApproverID}).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

// DraftItem is an unsaved, already priced line-item row, used to pre-fill a
// new quote form from a template.
type DraftItem struct {
	ProductID    uint   `json:"product_id"`
	Code         string `json:"code"`
	Description  string `json:"description"`
	Quantity     int    `json:"quantity"`
	Discount     int    `json:"discount"`
	ProfitMargin int    `json:"profit_margin"`
	UnitPrice    int64  `json:"unit_price"`
	Subtotal     int64  `json:"subtotal"`
}

const defaultProfitMargin = 35

// FromTemplate prices a template's product bundle into draft rows with no
// discount and the default margin.
func (s *QuoteService) FromTemplate(ctx context.Context, templateID uint) ([]DraftItem, error) {
	var tpl models.Template
	if err := s.db.WithContext(ctx).Preload("Items.Product").First(&tpl, templateID).Error; err != nil {
		return nil, err
	}
	drafts := make([]DraftItem, 0, len(tpl.Items))
	for _, it := range tpl.Items {
		unit, subtotal, err := pricing.PriceLineItem(pricing.Input{
			BasePrice:    it.Product.Price,
			Discount:     0,
			ProfitMargin: defaultProfitMargin,
			Quantity:     it.Quantity,
		})
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, DraftItem{
			ProductID:    it.ProductID,
			Code:         it.Product.Code,
			Description:  it.Product.Description,
			Quantity:     it.Quantity,
			Discount:     0,
			ProfitMargin: defaultProfitMargin,
			UnitPrice:    unit,
			Subtotal:     subtotal,
		})
	}
	return drafts, nil
}

func (s *QuoteService) validateInput(in QuoteInput) error {
	if len(in.Items) > pricing.MaxLineItems {
		return ErrTooManyItems
	}
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", pricing.ErrInvalidInput, err)
	}
	return nil
}

func currencyOrDefault(c string) string {
	if c == "" {
		return models.CurrencyUSD
	}
	return c
}

// likeEscape backslash-escapes LIKE wildcards so filter text matches
// literally. Callers pair the pattern with an ESCAPE '\' clause.
func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
