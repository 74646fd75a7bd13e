package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/mfarias/cotizador/internal/models"
)

func TestGenerateProducesPDF(t *testing.T) {
	q := &models.Quote{
		PublicID:   1234,
		Status:     models.StatusApproved,
		Currency:   models.CurrencyUSD,
		TotalNet:   29970,
		Tax:        5694,
		TotalFinal: 35664,
		UpdatedAt:  time.Now(),
		Client:     models.Client{Name: "Compras", Entity: models.Entity{Name: "Hospital Demo"}},
		SalesRep:   models.SalesRep{Name: "Vendedor Demo"},
		Items: []models.LineItem{
			{
				Product:   models.Product{Code: "END-0001", Description: "Endoscopio de prueba"},
				Quantity:  2, Discount: 0, UnitPrice: 14985, Subtotal: 29970,
			},
		},
	}
	out, err := Generate(q, PlainFormatter(q.Currency))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", out[:8])
	}
	if len(out) < 1000 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(out))
	}
}
