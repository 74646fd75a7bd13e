// Package pdf renders a quote into a downloadable PDF document.
package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/mfarias/cotizador/internal/models"
)

// Formatter turns a stored USD amount into the display string for the
// quote's currency. Keeps the generator free of conversion logic.
type Formatter func(amount int64) string

// PlainFormatter renders amounts as-is with a currency suffix.
func PlainFormatter(currency string) Formatter {
	return func(amount int64) string {
		return fmt.Sprintf("%d %s", amount, currency)
	}
}

// Generate renders the quote document: logo, header fields, the line-item
// table, and the net/VAT/final totals.
func Generate(q *models.Quote, format Formatter) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Cotizacion %d", q.PublicID), false)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	logo, err := base64.StdEncoding.DecodeString(logoPNG)
	if err == nil {
		doc.RegisterImageOptionsReader("logo", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(logo))
		doc.ImageOptions("logo", 10, 10, 40, 0, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	doc.SetY(28)
	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, tr(fmt.Sprintf("Cotización N° %d", q.PublicID)))
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, tr(fmt.Sprintf("Fecha: %s", q.UpdatedAt.Format("02-01-2006"))))
	doc.Ln(6)
	if q.Client.Name != "" {
		client := q.Client.Name
		if q.Client.Entity.Name != "" {
			client = fmt.Sprintf("%s - %s", q.Client.Entity.Name, q.Client.Name)
		}
		doc.Cell(0, 6, tr("Cliente: "+client))
		doc.Ln(6)
	}
	if q.SalesRep.Name != "" {
		doc.Cell(0, 6, tr("Rep. Ventas: "+q.SalesRep.Name))
		doc.Ln(6)
	}
	doc.Cell(0, 6, tr("Estado: "+statusLabel(q.Status)))
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 10)
	doc.Cell(28, 7, tr("Código"))
	doc.Cell(72, 7, tr("Descripción"))
	doc.Cell(16, 7, "Cant.")
	doc.Cell(16, 7, "Desc.")
	doc.Cell(30, 7, "P. Unitario")
	doc.Cell(28, 7, "Subtotal")
	doc.Ln(8)

	doc.SetFont("Helvetica", "", 9)
	for _, it := range q.Items {
		doc.Cell(28, 6, trim(it.Product.Code, 14))
		doc.Cell(72, 6, tr(trim(it.Product.Description, 44)))
		doc.Cell(16, 6, fmt.Sprintf("%d", it.Quantity))
		doc.Cell(16, 6, fmt.Sprintf("%d%%", it.Discount))
		doc.Cell(30, 6, format(it.UnitPrice))
		doc.Cell(28, 6, format(it.Subtotal))
		doc.Ln(6)
	}

	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 11)
	doc.Cell(0, 7, tr("Total neto: "+format(q.TotalNet)))
	doc.Ln(6)
	doc.Cell(0, 7, "IVA (19%): "+format(q.Tax))
	doc.Ln(6)
	doc.Cell(0, 7, "Total: "+format(q.TotalFinal))
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 8)
	doc.Cell(0, 5, tr(fmt.Sprintf("Generado: %s", time.Now().Format(time.RFC3339))))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func statusLabel(code string) string {
	switch code {
	case models.StatusPending:
		return "Pendiente"
	case models.StatusApproved:
		return "Aprobada"
	case models.StatusRejected:
		return "Rechazada"
	case models.StatusClosed:
		return "Cerrada"
	default:
		return code
	}
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
