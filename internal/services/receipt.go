package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/Yvann20/Flask/internal/models"
	"github.com/go-pdf/fpdf"
)

const (
	receiptMargin      = 20.0
	receiptLabelWidth  = 60.0
	receiptValueWidth  = 110.0
	receiptLineHeight  = 6.0
	receiptCellPadding = 2.0
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ReceiptService renders an order into a printable A4 PDF receipt.
// The output depends on the order only, so identical orders produce
// identical bytes.
type ReceiptService struct {
	metrics *metrics.Registry
}

func NewReceiptService(reg *metrics.Registry) *ReceiptService {
	return &ReceiptService{metrics: reg}
}

// FileName is the attachment name used when the receipt is sent.
func (r *ReceiptService) FileName(order models.Order) string {
	return fmt.Sprintf("comprovante_%s.pdf", unsafeFileChars.ReplaceAllString(order.ID, "_"))
}

type receiptRow struct {
	label string
	value string
}

func receiptRows(order models.Order) []receiptRow {
	return []receiptRow{
		{"ID do Pedido", order.ID},
		{"ID da Transação", models.OrNA(order.TransactionID)},
		{"Nome do Cliente", order.Name},
		{"CPF", models.FormatDocumentNumber(order.DocumentNumber)},
		{"Produto", order.Product},
		{"Valor Original", models.FormatMoney(order.Value)},
		{"Desconto", models.FormatMoney(order.Discount)},
		{"Valor Final", models.FormatMoney(order.Savings)},
		{"Status", strings.ToUpper(string(order.Status))},
		{"Criado em", order.CreatedAt.Display()},
		{"Atualizado em", order.UpdatedAt.Display()},
	}
}

// Render builds the receipt: a title header, a two column field table and a
// signature footer, with page numbers on every page.
func (r *ReceiptService) Render(order models.Order) ([]byte, error) {
	started := time.Now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(order.CreatedAt.Time)
	pdf.SetModificationDate(order.UpdatedAt.Time)
	pdf.SetMargins(receiptMargin, receiptMargin, receiptMargin)
	pdf.SetAutoPageBreak(true, receiptMargin)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Comprovante do pedido "+order.ID), false)
	pdf.SetCreator("receiptbot", false)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(149, 165, 166)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d/{nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 12, "COMPROVANTE DE PEDIDO", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(127, 140, 141)
	pdf.CellFormat(0, 6, tr("Data/Hora: "+order.CreatedAt.Display()), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetDrawColor(189, 195, 199)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(52, 73, 94)
	pdf.SetTextColor(245, 245, 245)
	pdf.CellFormat(receiptLabelWidth, 10, "Campo", "1", 0, "L", true, 0, "")
	pdf.CellFormat(receiptValueWidth, 10, "Valor", "1", 1, "L", true, 0, "")

	pdf.SetTextColor(0, 0, 0)
	for i, row := range receiptRows(order) {
		value := tr(row.value)
		lines := pdf.SplitLines([]byte(value), receiptValueWidth-2*receiptCellPadding)
		height := float64(len(lines))*receiptLineHeight + 2*receiptCellPadding

		_, pageHeight := pdf.GetPageSize()
		if pdf.GetY()+height > pageHeight-receiptMargin {
			pdf.AddPage()
		}

		x, y := pdf.GetXY()

		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(236, 240, 241)
		pdf.CellFormat(receiptLabelWidth, height, tr(row.label), "1", 0, "L", true, 0, "")

		if i%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(248, 249, 250)
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.Rect(x+receiptLabelWidth, y, receiptValueWidth, height, "FD")
		pdf.SetXY(x+receiptLabelWidth+receiptCellPadding, y+receiptCellPadding)
		pdf.MultiCell(receiptValueWidth-2*receiptCellPadding, receiptLineHeight, value, "", "L", false)

		pdf.SetXY(x, y+height)
	}

	pdf.Ln(25)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(149, 165, 166)
	pdf.MultiCell(0, 4, tr("Este comprovante foi gerado automaticamente pelo sistema e contém "+
		"as informações registradas no momento do cadastro."), "", "C", false)
	pdf.Ln(8)
	pdf.CellFormat(0, 5, strings.Repeat("_", 50), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Assinatura", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt for order %s: %w", order.ID, err)
	}

	r.metrics.ReceiptsRendered.Inc()
	r.metrics.ReceiptRenderSeconds.Observe(time.Since(started).Seconds())

	return buf.Bytes(), nil
}
