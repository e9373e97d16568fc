package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/validation"
)

// ContentTypeXLSX is the media type of exported workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Period is an inclusive date window. Nil bounds default to the first of the
// current month and today.
type Period struct {
	Start *time.Time
	End   *time.Time
}

// GSTSummary totals the tax collected over a period
type GSTSummary struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	InvoiceCount  int64           `json:"invoiceCount"`
	TotalTaxable  decimal.Decimal `json:"totalTaxable"`
	TotalCGST     decimal.Decimal `json:"totalCgst"`
	TotalSGST     decimal.Decimal `json:"totalSgst"`
	TotalIGST     decimal.Decimal `json:"totalIgst"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	TotalInvoiced decimal.Decimal `json:"totalInvoiced"`
}

// LedgerEntry is one row of a customer ledger
type LedgerEntry struct {
	Date        time.Time       `json:"date"`
	InvoiceID   uuid.UUID       `json:"invoiceId"`
	InvoiceNo   string          `json:"invoiceNo"`
	Particulars string          `json:"particulars"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// Ledger is the running account of one customer
type Ledger struct {
	Customer       *models.Customer `json:"customer"`
	Start          time.Time        `json:"start"`
	End            time.Time        `json:"end"`
	OpeningBalance decimal.Decimal  `json:"openingBalance"`
	Entries        []LedgerEntry    `json:"entries"`
	TotalDebit     decimal.Decimal  `json:"totalDebit"`
	TotalCredit    decimal.Decimal  `json:"totalCredit"`
	ClosingBalance decimal.Decimal  `json:"closingBalance"`
}

// ReportService builds the GST summary and customer ledger reports
type ReportService interface {
	GSTSummary(ctx context.Context, shopID uuid.UUID, period Period) (*GSTSummary, error)
	CustomerLedger(ctx context.Context, shopID, customerID uuid.UUID, period Period) (*Ledger, error)
	ExportGSTSummaryXLSX(ctx context.Context, shopID uuid.UUID, period Period) (*Document, error)
	ExportLedgerXLSX(ctx context.Context, shopID, customerID uuid.UUID, period Period) (*Document, error)
}

type reportService struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	now       func() time.Time
}

func NewReportService(invoices repository.InvoiceRepository, customers repository.CustomerRepository) ReportService {
	return &reportService{invoices: invoices, customers: customers, now: time.Now}
}

func (s *reportService) resolve(period Period) (time.Time, time.Time, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if period.Start != nil {
		start = *period.Start
	}
	end := today
	if period.End != nil {
		end = *period.End
	}
	if end.Before(start) {
		var errs validation.Errors
		errs.Add("endDate", validation.CodeInvalid, "End date must not be before start date")
		return start, end, errs
	}
	return start, end, nil
}

func (s *reportService) GSTSummary(ctx context.Context, shopID uuid.UUID, period Period) (*GSTSummary, error) {
	start, end, err := s.resolve(period)
	if err != nil {
		return nil, err
	}

	sums, err := s.invoices.Sums(ctx, shopID, repository.DateRange{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to sum invoices: %w", err)
	}

	return &GSTSummary{
		Start:         start,
		End:           end,
		InvoiceCount:  sums.Count,
		TotalTaxable:  sums.TaxableAmount,
		TotalCGST:     sums.CGSTAmount,
		TotalSGST:     sums.SGSTAmount,
		TotalIGST:     sums.IGSTAmount,
		TotalTax:      sums.CGSTAmount.Add(sums.SGSTAmount).Add(sums.IGSTAmount),
		TotalInvoiced: sums.GrandTotal,
	}, nil
}

// CustomerLedger lists invoices as debits. The opening balance is the
// customer's own opening balance plus everything invoiced before the period.
func (s *reportService) CustomerLedger(ctx context.Context, shopID, customerID uuid.UUID, period Period) (*Ledger, error) {
	start, end, err := s.resolve(period)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByID(ctx, shopID, customerID)
	if err != nil {
		return nil, err
	}

	earlier, err := s.invoices.SumBefore(ctx, shopID, customerID, start)
	if err != nil {
		return nil, fmt.Errorf("failed to sum earlier invoices: %w", err)
	}
	invoices, err := s.invoices.ListForCustomer(ctx, shopID, customerID, repository.DateRange{From: &start, To: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to list customer invoices: %w", err)
	}

	ledger := &Ledger{
		Customer:       customer,
		Start:          start,
		End:            end,
		OpeningBalance: customer.OpeningBalance.Add(earlier),
		Entries:        make([]LedgerEntry, 0, len(invoices)),
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	balance := ledger.OpeningBalance
	for _, inv := range invoices {
		balance = balance.Add(inv.GrandTotal)
		ledger.TotalDebit = ledger.TotalDebit.Add(inv.GrandTotal)
		ledger.Entries = append(ledger.Entries, LedgerEntry{
			Date:        inv.Date,
			InvoiceID:   inv.ID,
			InvoiceNo:   inv.InvoiceNo,
			Particulars: "Invoice #" + inv.InvoiceNo,
			Debit:       inv.GrandTotal,
			Credit:      decimal.Zero,
			Balance:     balance,
		})
	}
	ledger.ClosingBalance = balance
	return ledger, nil
}

func (s *reportService) ExportGSTSummaryXLSX(ctx context.Context, shopID uuid.UUID, period Period) (*Document, error) {
	summary, err := s.GSTSummary(ctx, shopID, period)
	if err != nil {
		return nil, err
	}

	const sheet = "GST Summary"
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheet)

	styles := newSheetStyles(f)
	f.SetCellValue(sheet, "A1", "GST Summary")
	f.SetCellStyle(sheet, "A1", "A1", styles.title)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("%s to %s", summary.Start.Format(dateLayout), summary.End.Format(dateLayout)))

	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Invoices", decimal.NewFromInt(summary.InvoiceCount)},
		{"Taxable Value", summary.TotalTaxable},
		{"CGST", summary.TotalCGST},
		{"SGST", summary.TotalSGST},
		{"IGST", summary.TotalIGST},
		{"Total Tax", summary.TotalTax},
		{"Total Invoiced", summary.TotalInvoiced},
	}
	f.SetCellValue(sheet, "A4", "Particulars")
	f.SetCellValue(sheet, "B4", "Amount")
	f.SetCellStyle(sheet, "A4", "B4", styles.header)
	for i, row := range rows {
		r := i + 5
		f.SetCellValue(sheet, cellName(1, r), row.label)
		f.SetCellValue(sheet, cellName(2, r), row.value.InexactFloat64())
		if i > 0 {
			f.SetCellStyle(sheet, cellName(2, r), cellName(2, r), styles.money)
		}
	}
	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "B", 18)

	name := fmt.Sprintf("gst-summary-%s-%s.xlsx", summary.Start.Format(dateLayout), summary.End.Format(dateLayout))
	return workbookDocument(f, name)
}

func (s *reportService) ExportLedgerXLSX(ctx context.Context, shopID, customerID uuid.UUID, period Period) (*Document, error) {
	ledger, err := s.CustomerLedger(ctx, shopID, customerID, period)
	if err != nil {
		return nil, err
	}

	const sheet = "Ledger"
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheet)

	styles := newSheetStyles(f)
	f.SetCellValue(sheet, "A1", "Customer Ledger: "+ledger.Customer.Name)
	f.SetCellStyle(sheet, "A1", "A1", styles.title)
	f.SetCellValue(sheet, "A2", fmt.Sprintf("%s to %s", ledger.Start.Format(dateLayout), ledger.End.Format(dateLayout)))

	headers := []string{"Date", "Particulars", "Debit", "Credit", "Balance"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellName(i+1, 4), h)
	}
	f.SetCellStyle(sheet, "A4", "E4", styles.header)

	r := 5
	f.SetCellValue(sheet, cellName(2, r), "Opening Balance")
	f.SetCellValue(sheet, cellName(5, r), ledger.OpeningBalance.InexactFloat64())
	for _, e := range ledger.Entries {
		r++
		f.SetCellValue(sheet, cellName(1, r), e.Date.Format(dateLayout))
		f.SetCellValue(sheet, cellName(2, r), e.Particulars)
		f.SetCellValue(sheet, cellName(3, r), e.Debit.InexactFloat64())
		f.SetCellValue(sheet, cellName(4, r), e.Credit.InexactFloat64())
		f.SetCellValue(sheet, cellName(5, r), e.Balance.InexactFloat64())
	}
	r++
	f.SetCellValue(sheet, cellName(2, r), "Closing Balance")
	f.SetCellValue(sheet, cellName(3, r), ledger.TotalDebit.InexactFloat64())
	f.SetCellValue(sheet, cellName(4, r), ledger.TotalCredit.InexactFloat64())
	f.SetCellValue(sheet, cellName(5, r), ledger.ClosingBalance.InexactFloat64())
	f.SetCellStyle(sheet, cellName(1, r), cellName(5, r), styles.header)
	f.SetCellStyle(sheet, "C5", cellName(5, r-1), styles.money)

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 30)
	f.SetColWidth(sheet, "C", "E", 16)

	raw := fmt.Sprintf("ledger-%s-%s", ledger.Customer.Name, ledger.Start.Format(dateLayout))
	name := unsafeFileChars.ReplaceAllString(raw, "-") + ".xlsx"
	return workbookDocument(f, name)
}

type sheetStyles struct {
	title  int
	header int
	money  int
}

func newSheetStyles(f *excelize.File) sheetStyles {
	title, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	header, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	moneyFmt := "#,##0.00"
	money, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	return sheetStyles{title: title, header: header, money: money}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func workbookDocument(f *excelize.File, name string) (*Document, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	data := buf.Bytes()
	return &Document{
		Data:        data,
		ContentType: ContentTypeXLSX,
		FileName:    name,
		Checksum:    Checksum(data),
	}, nil
}
