package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"gst-billing-service/internal/encryption"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Document is a rendered invoice
type Document struct {
	Data        []byte
	ContentType string
	FileName    string
	Checksum    string // sha256 hex of Data
}

// InvoiceDocumentService renders invoices as PDF or HTML
type InvoiceDocumentService interface {
	RenderPDF(ctx context.Context, invoice *models.Invoice) (*Document, error)
	RenderHTML(ctx context.Context, invoice *models.Invoice) (*Document, error)
}

type invoiceDocumentService struct {
	shops     repository.ShopRepository
	encryptor *encryption.AccountEncryptor
	logger    *logrus.Entry
	now       func() time.Time
}

func NewInvoiceDocumentService(shops repository.ShopRepository, encryptor *encryption.AccountEncryptor, logger *logrus.Logger) InvoiceDocumentService {
	return &invoiceDocumentService{
		shops:     shops,
		encryptor: encryptor,
		logger:    logger.WithField("component", "documents"),
		now:       time.Now,
	}
}

// invoiceView is the formatted data both renderers print
type invoiceView struct {
	Invoice   *models.Invoice
	Shop      *models.Shop
	Customer  *models.Customer
	Bank      *bankView
	Lines     []lineView
	Taxable   string
	CGST      string
	SGST      string
	IGST      string
	Total     string
	RoundOff  string
	Grand     string
	Words     string
	Date      string
	Generated string
}

type lineView struct {
	No          int
	Description string
	HSN         string
	Packets     string
	Quantity    string
	Unit        string
	Rate        string
	Taxable     string
	TaxRate     string
	Tax         string
	Total       string
}

type bankView struct {
	BankName      string
	AccountHolder string
	AccountNumber string
	IFSC          string
	BranchName    string
	UPIID         string
	PaymentNote   string
}

// FileName builds the download name of an invoice, e.g. INV-INV-0001-Acme-Traders.pdf
func FileName(invoiceNo, customerName, ext string) string {
	raw := fmt.Sprintf("INV-%s-%s", invoiceNo, customerName)
	return unsafeFileChars.ReplaceAllString(raw, "-") + ext
}

// Checksum returns the sha256 hex digest of data
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *invoiceDocumentService) RenderPDF(ctx context.Context, invoice *models.Invoice) (*Document, error) {
	view, err := s.buildView(ctx, invoice)
	if err != nil {
		return nil, err
	}

	data, err := s.generatePDF(view)
	if err != nil {
		return nil, err
	}
	return &Document{
		Data:        data,
		ContentType: ContentTypePDF,
		FileName:    FileName(invoice.InvoiceNo, view.Customer.Name, ".pdf"),
		Checksum:    Checksum(data),
	}, nil
}

func (s *invoiceDocumentService) RenderHTML(ctx context.Context, invoice *models.Invoice) (*Document, error) {
	view, err := s.buildView(ctx, invoice)
	if err != nil {
		return nil, err
	}

	data, err := generateInvoiceHTML(view)
	if err != nil {
		return nil, err
	}
	return &Document{
		Data:        data,
		ContentType: ContentTypeHTML,
		FileName:    FileName(invoice.InvoiceNo, view.Customer.Name, ".html"),
		Checksum:    Checksum(data),
	}, nil
}

func (s *invoiceDocumentService) buildView(ctx context.Context, invoice *models.Invoice) (*invoiceView, error) {
	shop, err := s.shops.GetByID(ctx, invoice.ShopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}

	customer := invoice.Customer
	if customer == nil {
		customer = &models.Customer{ID: invoice.CustomerID}
	}

	view := &invoiceView{
		Invoice:   invoice,
		Shop:      shop,
		Customer:  customer,
		Taxable:   formatRupees(invoice.TaxableAmount),
		CGST:      formatRupees(invoice.CGSTAmount),
		SGST:      formatRupees(invoice.SGSTAmount),
		IGST:      formatRupees(invoice.IGSTAmount),
		Total:     formatRupees(invoice.TotalAmount),
		RoundOff:  formatRupees(invoice.RoundOff),
		Grand:     formatRupees(invoice.GrandTotal),
		Words:     invoice.AmountInWords,
		Date:      invoice.Date.Format("02-01-2006"),
		Generated: s.now().Format("02 Jan 2006 15:04 MST"),
	}

	for i, item := range invoice.Items {
		tax := item.CGSTAmount.Add(item.SGSTAmount).Add(item.IGSTAmount)
		packets := ""
		if item.Packets > 0 {
			packets = fmt.Sprintf("%d", item.Packets)
		}
		view.Lines = append(view.Lines, lineView{
			No:          i + 1,
			Description: item.Description,
			HSN:         item.HSNCode,
			Packets:     packets,
			Quantity:    item.Quantity.String(),
			Unit:        item.Unit,
			Rate:        item.Rate.StringFixed(2),
			Taxable:     item.TaxableValue.StringFixed(2),
			TaxRate:     item.TaxRate.String() + "%",
			Tax:         tax.StringFixed(2),
			Total:       item.TotalAmount.StringFixed(2),
		})
	}

	bank, err := s.shops.GetBankDetail(ctx, shop.ID)
	switch {
	case err == nil:
		view.Bank = &bankView{
			BankName:      bank.BankName,
			AccountHolder: bank.AccountHolder,
			AccountNumber: s.encryptor.DecryptOrMask(bank.AccountNumberEncrypted),
			IFSC:          bank.IFSC,
			BranchName:    bank.BranchName,
			UPIID:         bank.UPIID,
			PaymentNote:   bank.PaymentNote,
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		s.logger.WithError(err).WithField("shopId", shop.ID).Warn("Failed to load bank details for invoice")
	}

	return view, nil
}

// generatePDF lays the invoice out with maroto
func (s *invoiceDocumentService) generatePDF(view *invoiceView) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(10).
		WithTopMargin(12).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	addPDFHeader(m, view)
	addPDFMeta(m, view)
	addPDFBillTo(m, view)
	addPDFItems(m, view)
	addPDFTotals(m, view)
	if view.Bank != nil {
		addPDFBank(m, view)
	}
	addPDFFooter(m, view)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addPDFHeader(m core.Maroto, view *invoiceView) {
	shop := view.Shop
	address := joinNonEmpty(", ", shop.AddressLine1, shop.AddressLine2, shop.City, shop.State, shop.Pincode)
	contact := joinNonEmpty(" | ", shop.BusinessPhone, shop.BusinessEmail)

	m.AddRow(28,
		col.New(7).Add(
			text.New(shop.Name, props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
			text.New(address, props.Text{
				Size:  9,
				Top:   8,
				Align: align.Left,
			}),
			text.New(contact, props.Text{
				Size:  9,
				Top:   13,
				Align: align.Left,
			}),
			text.New(gstinLine(shop.GSTIN, shop.StateCode), props.Text{
				Size:  9,
				Top:   18,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		),
		col.New(5).Add(
			text.New("TAX INVOICE", props.Text{
				Size:  18,
				Style: fontstyle.Bold,
				Align: align.Right,
			}),
			text.New(string(view.Invoice.Status), props.Text{
				Size:  10,
				Top:   9,
				Align: align.Right,
			}),
		),
	)
	m.AddRow(4, line.NewCol(12))
}

func addPDFMeta(m core.Maroto, view *invoiceView) {
	inv := view.Invoice
	supply := "Intra-state (CGST + SGST)"
	if inv.IsInterState {
		supply = "Inter-state (IGST)"
	}

	m.AddRow(16,
		col.New(6).Add(
			text.New(fmt.Sprintf("Invoice No: %s", inv.InvoiceNo), props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("Date: %s", view.Date), props.Text{
				Size:  10,
				Top:   5,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("Supply: %s", supply), props.Text{
				Size:  9,
				Top:   10,
				Align: align.Left,
			}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Place of Supply: %s", inv.PlaceOfSupply), props.Text{
				Size:  10,
				Align: align.Right,
			}),
			text.New(fmt.Sprintf("Vehicle No: %s", inv.VehicleNo), props.Text{
				Size:  9,
				Top:   5,
				Align: align.Right,
			}),
			text.New(fmt.Sprintf("E-way Bill: %s", inv.EwayBillNo), props.Text{
				Size:  9,
				Top:   10,
				Align: align.Right,
			}),
		),
	)
}

func addPDFBillTo(m core.Maroto, view *invoiceView) {
	c := view.Customer
	address := joinNonEmpty(", ", c.BillingAddress, c.City, c.State, c.Pincode)

	m.AddRow(24,
		col.New(12).Add(
			text.New("BILL TO:", props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
			text.New(c.Name, props.Text{
				Size:  11,
				Top:   5,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
			text.New(address, props.Text{
				Size:  9,
				Top:   11,
				Align: align.Left,
			}),
			text.New(gstinLine(c.GSTIN, c.StateCode), props.Text{
				Size:  9,
				Top:   16,
				Align: align.Left,
			}),
		),
	)
	m.AddRow(4, line.NewCol(12))
}

func addPDFItems(m core.Maroto, view *invoiceView) {
	header := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center}
	m.AddRow(8,
		col.New(1).Add(text.New("#", header)),
		col.New(3).Add(text.New("Description", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left})),
		col.New(1).Add(text.New("HSN", header)),
		col.New(1).Add(text.New("Qty", header)),
		col.New(1).Add(text.New("Rate", header)),
		col.New(2).Add(text.New("Taxable", header)),
		col.New(1).Add(text.New("GST", header)),
		col.New(2).Add(text.New("Amount", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right})),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 8, Align: align.Center}
	for _, l := range view.Lines {
		qty := strings.TrimSpace(l.Quantity + " " + l.Unit)
		if l.Packets != "" {
			qty = fmt.Sprintf("%s (%s pkt)", qty, l.Packets)
		}
		m.AddRow(8,
			col.New(1).Add(text.New(fmt.Sprintf("%d", l.No), cell)),
			col.New(3).Add(text.New(l.Description, props.Text{Size: 8, Align: align.Left})),
			col.New(1).Add(text.New(l.HSN, cell)),
			col.New(1).Add(text.New(qty, cell)),
			col.New(1).Add(text.New(l.Rate, cell)),
			col.New(2).Add(text.New(l.Taxable, cell)),
			col.New(1).Add(text.New(l.TaxRate, cell)),
			col.New(2).Add(text.New(l.Total, props.Text{Size: 8, Align: align.Right})),
		)
	}
	m.AddRow(3, line.NewCol(12))
}

func addPDFTotals(m core.Maroto, view *invoiceView) {
	addTotalRow(m, "Taxable Amount:", view.Taxable, false)
	if view.Invoice.IsInterState {
		addTotalRow(m, "IGST:", view.IGST, false)
	} else {
		addTotalRow(m, "CGST:", view.CGST, false)
		addTotalRow(m, "SGST:", view.SGST, false)
	}
	addTotalRow(m, "Round Off:", view.RoundOff, false)
	addTotalRow(m, "GRAND TOTAL:", view.Grand, true)

	m.AddRow(10,
		col.New(12).Add(
			text.New(view.Words, props.Text{
				Size:  9,
				Top:   3,
				Style: fontstyle.Italic,
				Align: align.Left,
			}),
		),
	)
}

func addTotalRow(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	size := 9.0
	if bold {
		style = fontstyle.Bold
		size = 11
	}
	m.AddRow(6,
		col.New(7),
		col.New(3).Add(text.New(label, props.Text{Size: size, Style: style, Align: align.Right})),
		col.New(2).Add(text.New(value, props.Text{Size: size, Style: style, Align: align.Right})),
	)
}

func addPDFBank(m core.Maroto, view *invoiceView) {
	b := view.Bank
	m.AddRow(4, line.NewCol(12))
	m.AddRow(24,
		col.New(12).Add(
			text.New("BANK DETAILS", props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("%s | A/c Holder: %s", b.BankName, b.AccountHolder), props.Text{
				Size:  9,
				Top:   5,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("A/c No: %s | IFSC: %s | Branch: %s", b.AccountNumber, b.IFSC, b.BranchName), props.Text{
				Size:  9,
				Top:   10,
				Align: align.Left,
			}),
			text.New(joinNonEmpty(" | ", prefixed("UPI: ", b.UPIID), b.PaymentNote), props.Text{
				Size:  9,
				Top:   15,
				Align: align.Left,
			}),
		),
	)
}

func addPDFFooter(m core.Maroto, view *invoiceView) {
	m.AddRow(16,
		col.New(6).Add(
			text.New(fmt.Sprintf("Generated on %s", view.Generated), props.Text{
				Size:  7,
				Top:   10,
				Align: align.Left,
				Color: &props.Color{Red: 128, Green: 128, Blue: 128},
			}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("For %s", view.Shop.Name), props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Align: align.Right,
			}),
			text.New("Authorised Signatory", props.Text{
				Size:  8,
				Top:   10,
				Align: align.Right,
			}),
		),
	)
}

func generateInvoiceHTML(view *invoiceView) ([]byte, error) {
	tmpl, err := template.New("invoice").Parse(invoiceHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// formatRupees prints an amount with two decimals. The core PDF fonts have no
// rupee glyph, so "Rs." is used.
func formatRupees(amount decimal.Decimal) string {
	return "Rs. " + amount.StringFixed(2)
}

func gstinLine(gstin, stateCode string) string {
	if gstin == "" {
		return "GSTIN: Unregistered"
	}
	if stateCode == "" {
		return "GSTIN: " + gstin
	}
	return fmt.Sprintf("GSTIN: %s (State Code %s)", gstin, stateCode)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

const invoiceHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Tax Invoice - {{.Invoice.InvoiceNo}}</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 860px; margin: 0 auto; padding: 20px; }
        .header { display: flex; justify-content: space-between; border-bottom: 2px solid #1f4e79; padding-bottom: 12px; }
        .header h1 { color: #1f4e79; margin: 0; font-size: 22px; }
        .muted { color: #666; font-size: 13px; }
        .meta { display: flex; justify-content: space-between; margin: 16px 0; font-size: 14px; }
        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        th { background: #f3f6f9; text-align: left; padding: 8px; }
        td { padding: 8px; border-bottom: 1px solid #eee; }
        .num { text-align: right; }
        .totals { width: 320px; margin-left: auto; margin-top: 16px; }
        .grand td { font-weight: bold; font-size: 15px; border-top: 2px solid #333; }
        .words { font-style: italic; margin-top: 12px; }
        .bank { margin-top: 24px; font-size: 13px; }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <h1>{{.Shop.Name}}</h1>
            <div class="muted">{{.Shop.AddressLine1}} {{.Shop.AddressLine2}} {{.Shop.City}} {{.Shop.State}} {{.Shop.Pincode}}</div>
            <div class="muted">{{if .Shop.GSTIN}}GSTIN: {{.Shop.GSTIN}}{{else}}GSTIN: Unregistered{{end}}</div>
        </div>
        <div style="text-align:right">
            <h2 style="margin:0">TAX INVOICE</h2>
            <div class="muted">{{.Invoice.Status}}</div>
        </div>
    </div>

    <div class="meta">
        <div>
            <strong>Invoice No:</strong> {{.Invoice.InvoiceNo}}<br>
            <strong>Date:</strong> {{.Date}}<br>
            <strong>Place of Supply:</strong> {{.Invoice.PlaceOfSupply}}
        </div>
        <div style="text-align:right">
            <strong>Bill To:</strong> {{.Customer.Name}}<br>
            {{.Customer.BillingAddress}}<br>
            {{if .Customer.GSTIN}}GSTIN: {{.Customer.GSTIN}}{{end}}
        </div>
    </div>

    <table>
        <thead>
            <tr>
                <th>#</th><th>Description</th><th>HSN</th><th class="num">Qty</th><th class="num">Rate</th>
                <th class="num">Taxable</th><th class="num">GST</th><th class="num">Amount</th>
            </tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr>
                <td>{{.No}}</td><td>{{.Description}}</td><td>{{.HSN}}</td>
                <td class="num">{{.Quantity}} {{.Unit}}</td><td class="num">{{.Rate}}</td>
                <td class="num">{{.Taxable}}</td><td class="num">{{.TaxRate}}</td><td class="num">{{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Taxable Amount</td><td class="num">{{.Taxable}}</td></tr>
        {{if .Invoice.IsInterState}}
        <tr><td>IGST</td><td class="num">{{.IGST}}</td></tr>
        {{else}}
        <tr><td>CGST</td><td class="num">{{.CGST}}</td></tr>
        <tr><td>SGST</td><td class="num">{{.SGST}}</td></tr>
        {{end}}
        <tr><td>Round Off</td><td class="num">{{.RoundOff}}</td></tr>
        <tr class="grand"><td>Grand Total</td><td class="num">{{.Grand}}</td></tr>
    </table>

    <p class="words">{{.Words}}</p>

    {{if .Bank}}
    <div class="bank">
        <strong>Bank Details</strong><br>
        {{.Bank.BankName}}, A/c Holder: {{.Bank.AccountHolder}}<br>
        A/c No: {{.Bank.AccountNumber}}, IFSC: {{.Bank.IFSC}}{{if .Bank.BranchName}}, Branch: {{.Bank.BranchName}}{{end}}<br>
        {{if .Bank.UPIID}}UPI: {{.Bank.UPIID}}{{end}}
    </div>
    {{end}}

    <p class="muted">Generated on {{.Generated}}</p>
</body>
</html>`
