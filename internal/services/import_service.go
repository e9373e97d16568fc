package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"gst-billing-service/internal/metrics"
	"gst-billing-service/internal/models"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/validation"
)

// ImportEntity names what an import file holds
type ImportEntity string

const (
	ImportCustomers ImportEntity = "customers"
	ImportProducts  ImportEntity = "products"
)

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ContentTypeCSV is the media type of CSV templates
const ContentTypeCSV = "text/csv"

// MaxImportRows caps the data rows accepted from one file
const MaxImportRows = 5000

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     ImportEntity           `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success      bool             `json:"success"`
	ValidateOnly bool             `json:"validateOnly"`
	TotalRows    int              `json:"totalRows"`
	SuccessCount int              `json:"successCount"`
	FailedCount  int              `json:"failedCount"`
	Errors       []ImportRowError `json:"errors"`
	CreatedIDs   []string         `json:"createdIds"`
}

// ImportFile is an uploaded spreadsheet
type ImportFile struct {
	Filename string
	Reader   io.Reader
}

// ImportService bulk-loads customers and products from CSV or Excel files
type ImportService interface {
	Template(entity ImportEntity) (*ImportTemplate, error)
	TemplateFile(entity ImportEntity, format ImportFormat) (*Document, error)
	Import(ctx context.Context, actor Actor, entity ImportEntity, file ImportFile, validateOnly bool) (*ImportResult, error)
}

type importService struct {
	customers repository.CustomerRepository
	products  repository.ProductRepository
	audit     AuditService
	logger    *logrus.Entry
}

func NewImportService(customers repository.CustomerRepository, products repository.ProductRepository, audit AuditService, logger *logrus.Logger) ImportService {
	return &importService{
		customers: customers,
		products:  products,
		audit:     audit,
		logger:    logger.WithField("component", "import"),
	}
}

// CustomerImportTemplate returns the template for customers
func CustomerImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  ImportCustomers,
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "name", Description: "Customer or business name", Required: true, Type: "string", Example: "Sharma Traders"},
			{Name: "contactPerson", Description: "Contact person", Required: false, Type: "string", Example: "Ravi Sharma"},
			{Name: "billingAddress", Description: "Billing address", Required: false, Type: "string", Example: "12 MG Road"},
			{Name: "shippingAddress", Description: "Shipping address", Required: false, Type: "string", Example: "12 MG Road"},
			{Name: "city", Description: "City", Required: false, Type: "string", Example: "Pune"},
			{Name: "pincode", Description: "6 digit pincode", Required: false, Type: "string", Example: "411001"},
			{Name: "gstin", Description: "15 character GSTIN", Required: false, Type: "string", Example: "27AAPFU0939F1ZV"},
			{Name: "pan", Description: "PAN", Required: false, Type: "string", Example: "AAPFU0939F"},
			{Name: "state", Description: "State name", Required: false, Type: "string", Example: "Maharashtra"},
			{Name: "placeOfSupply", Description: "Place of supply (defaults to state)", Required: false, Type: "string", Example: "Maharashtra"},
			{Name: "partyCode", Description: "Your internal party code", Required: false, Type: "string", Example: "C-001"},
			{Name: "priceCategory", Description: "Price list", Required: false, Type: "string", Example: "Wholesale"},
			{Name: "phone", Description: "10 digit mobile number", Required: false, Type: "string", Example: "9876543210"},
			{Name: "email", Description: "Email address", Required: false, Type: "string", Example: "accounts@sharmatraders.in"},
			{Name: "openingBalance", Description: "Opening balance in rupees", Required: false, Type: "number", Example: "0.00"},
		},
		SampleData: []map[string]string{
			{
				"name":            "Sharma Traders",
				"contactPerson":   "Ravi Sharma",
				"billingAddress":  "12 MG Road",
				"shippingAddress": "12 MG Road",
				"city":            "Pune",
				"pincode":         "411001",
				"gstin":           "27AAPFU0939F1ZV",
				"pan":             "AAPFU0939F",
				"state":           "Maharashtra",
				"placeOfSupply":   "Maharashtra",
				"partyCode":       "C-001",
				"priceCategory":   "Wholesale",
				"phone":           "9876543210",
				"email":           "accounts@sharmatraders.in",
				"openingBalance":  "0.00",
			},
		},
	}
}

// ProductImportTemplate returns the template for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  ImportProducts,
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Basmati Rice 25kg"},
			{Name: "description", Description: "Description", Required: false, Type: "string", Example: "Premium long grain"},
			{Name: "hsnCode", Description: "HSN or SAC code", Required: false, Type: "string", Example: "1006"},
			{Name: "unit", Description: "Unit of measure", Required: false, Type: "string", Example: "BAG"},
			{Name: "rate", Description: "Rate per unit in rupees", Required: true, Type: "number", Example: "1850.00"},
			{Name: "gstRate", Description: "GST rate (0, 0.25, 3, 5, 12, 18, 28)", Required: true, Type: "number", Example: "5"},
			{Name: "stockQuantity", Description: "Opening stock, blank to not track stock", Required: false, Type: "number", Example: "100"},
			{Name: "isActive", Description: "Active (true/false)", Required: false, Type: "boolean", Example: "true"},
		},
		SampleData: []map[string]string{
			{
				"name":          "Basmati Rice 25kg",
				"description":   "Premium long grain",
				"hsnCode":       "1006",
				"unit":          "BAG",
				"rate":          "1850.00",
				"gstRate":       "5",
				"stockQuantity": "100",
				"isActive":      "true",
			},
		},
	}
}

func (s *importService) Template(entity ImportEntity) (*ImportTemplate, error) {
	switch entity {
	case ImportCustomers:
		t := CustomerImportTemplate()
		return &t, nil
	case ImportProducts:
		t := ProductImportTemplate()
		return &t, nil
	default:
		return nil, fmt.Errorf("%w: unknown import entity %q", ErrInvalidInput, entity)
	}
}

func (s *importService) TemplateFile(entity ImportEntity, format ImportFormat) (*Document, error) {
	template, err := s.Template(entity)
	if err != nil {
		return nil, err
	}

	switch format {
	case ImportFormatCSV:
		data, err := csvTemplate(template)
		if err != nil {
			return nil, err
		}
		return &Document{
			Data:        data,
			ContentType: ContentTypeCSV,
			FileName:    fmt.Sprintf("%s_import_template.csv", entity),
			Checksum:    Checksum(data),
		}, nil
	case ImportFormatXLSX:
		return xlsxTemplate(template)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func csvTemplate(template *ImportTemplate) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write template: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxTemplate(template *ImportTemplate) (*Document, error) {
	entity := string(template.Entity)
	sheetName := strings.ToUpper(entity[:1]) + entity[1:]
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell := cellName(i+1, 1)
		headerText := col.Name
		style := headerStyle
		if col.Required {
			headerText = col.Name + " *"
			style = requiredStyle
		}
		f.SetCellValue(sheetName, cell, headerText)
		f.SetCellStyle(sheetName, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			f.SetCellValue(sheetName, cellName(colIdx+1, rowIdx+2), sample[col.Name])
		}
	}

	return workbookDocument(f, fmt.Sprintf("%s_import_template.xlsx", template.Entity))
}

// Import validates every row and creates the valid ones in a single batch.
// With validateOnly nothing is written.
func (s *importService) Import(ctx context.Context, actor Actor, entity ImportEntity, file ImportFile, validateOnly bool) (*ImportResult, error) {
	template, err := s.Template(entity)
	if err != nil {
		return nil, err
	}

	rows, err := parseImportFile(file)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: the file contains no data rows", ErrInvalidInput)
	}
	if len(rows) > MaxImportRows {
		return nil, fmt.Errorf("%w: at most %d rows can be imported at once", ErrInvalidInput, MaxImportRows)
	}

	result := &ImportResult{
		ValidateOnly: validateOnly,
		TotalRows:    len(rows),
		Errors:       make([]ImportRowError, 0),
		CreatedIDs:   make([]string, 0),
	}

	switch entity {
	case ImportCustomers:
		err = s.importCustomers(ctx, actor, template, rows, result)
	case ImportProducts:
		err = s.importProducts(ctx, actor, template, rows, result)
	}
	if err != nil {
		return nil, err
	}

	result.FailedCount = result.TotalRows - result.SuccessCount
	if validateOnly {
		result.Success = len(result.Errors) == 0
	} else {
		result.Success = result.SuccessCount > 0
	}

	if !validateOnly {
		metrics.ImportedRows.WithLabelValues(string(entity), "created").Add(float64(result.SuccessCount))
		metrics.ImportedRows.WithLabelValues(string(entity), "failed").Add(float64(result.FailedCount))
		s.audit.Record(ctx, actor, AuditImport, string(entity), "", map[string]interface{}{
			"file":    file.Filename,
			"total":   result.TotalRows,
			"created": result.SuccessCount,
			"failed":  result.FailedCount,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"shop_id":       actor.ShopID,
		"entity":        entity,
		"total":         result.TotalRows,
		"success":       result.SuccessCount,
		"failed":        result.FailedCount,
		"validate_only": validateOnly,
	}).Info("Import processed")

	return result, nil
}

func (s *importService) importCustomers(ctx context.Context, actor Actor, template *ImportTemplate, rows []importRow, result *ImportResult) error {
	customers := make([]models.Customer, 0, len(rows))
	for _, row := range rows {
		if !checkRequired(template, row, result) {
			continue
		}

		var errs validation.Errors
		req := &models.CustomerRequest{
			Name:            row.get("name"),
			ContactPerson:   row.get("contactPerson"),
			BillingAddress:  row.get("billingAddress"),
			ShippingAddress: row.get("shippingAddress"),
			City:            row.get("city"),
			Pincode:         row.get("pincode"),
			GSTIN:           row.get("gstin"),
			PAN:             row.get("pan"),
			State:           row.get("state"),
			PlaceOfSupply:   row.get("placeOfSupply"),
			PartyCode:       row.get("partyCode"),
			PriceCategory:   row.get("priceCategory"),
			Phone:           row.get("phone"),
			Email:           row.get("email"),
			OpeningBalance:  row.decimal("openingBalance", &errs),
		}
		customer, buildErrs := buildCustomer(req)
		errs = append(errs, buildErrs...)
		if errs.HasErrors() {
			addRowErrors(result, row.num, errs)
			continue
		}
		customer.ShopID = actor.ShopID
		customers = append(customers, *customer)
	}

	if result.ValidateOnly || len(customers) == 0 {
		result.SuccessCount = len(customers)
		return nil
	}
	if err := s.customers.CreateBatch(ctx, customers); err != nil {
		return fmt.Errorf("failed to import customers: %w", err)
	}
	for _, c := range customers {
		result.CreatedIDs = append(result.CreatedIDs, c.ID.String())
	}
	result.SuccessCount = len(customers)
	return nil
}

func (s *importService) importProducts(ctx context.Context, actor Actor, template *ImportTemplate, rows []importRow, result *ImportResult) error {
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		if !checkRequired(template, row, result) {
			continue
		}

		var errs validation.Errors
		req := &models.ProductRequest{
			Name:        row.get("name"),
			Description: row.get("description"),
			HSNCode:     row.get("hsnCode"),
			Unit:        row.get("unit"),
			Rate:        row.decimal("rate", &errs),
			GSTRate:     row.decimal("gstRate", &errs),
		}
		if row.get("stockQuantity") != "" {
			qty := row.decimal("stockQuantity", &errs)
			req.StockQuantity = &qty
		}
		if v := row.get("isActive"); v != "" {
			active, err := strconv.ParseBool(strings.ToLower(v))
			if err != nil {
				errs.Add("isActive", validation.CodeInvalid, "isActive must be true or false")
			} else {
				req.IsActive = &active
			}
		}

		product, buildErrs := buildProduct(req)
		errs = append(errs, buildErrs...)
		if errs.HasErrors() {
			addRowErrors(result, row.num, errs)
			continue
		}
		product.ShopID = actor.ShopID
		products = append(products, *product)
	}

	if result.ValidateOnly || len(products) == 0 {
		result.SuccessCount = len(products)
		return nil
	}
	if err := s.products.CreateBatch(ctx, products); err != nil {
		return fmt.Errorf("failed to import products: %w", err)
	}
	for _, p := range products {
		result.CreatedIDs = append(result.CreatedIDs, p.ID.String())
	}
	result.SuccessCount = len(products)
	return nil
}

// importRow is one data row keyed by lower-cased header
type importRow struct {
	num    int
	values map[string]string
}

func (r importRow) get(column string) string {
	return r.values[strings.ToLower(column)]
}

func (r importRow) decimal(column string, errs *validation.Errors) decimal.Decimal {
	raw := strings.ReplaceAll(r.get(column), ",", "")
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		errs.Add(column, validation.CodeInvalid, fmt.Sprintf("%s must be a number", column))
		return decimal.Zero
	}
	return d
}

func (r importRow) empty() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}

func checkRequired(template *ImportTemplate, row importRow, result *ImportResult) bool {
	ok := true
	for _, col := range template.Columns {
		if col.Required && row.get(col.Name) == "" {
			result.Errors = append(result.Errors, ImportRowError{
				Row:     row.num,
				Column:  col.Name,
				Code:    "REQUIRED_FIELD",
				Message: fmt.Sprintf("Required field '%s' is empty", col.Name),
			})
			ok = false
		}
	}
	return ok
}

func addRowErrors(result *ImportResult, rowNum int, errs validation.Errors) {
	for _, fe := range errs {
		result.Errors = append(result.Errors, ImportRowError{
			Row:     rowNum,
			Column:  fe.Field,
			Code:    fe.Code,
			Message: fe.Message,
		})
	}
}

func parseImportFile(file ImportFile) ([]importRow, error) {
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".csv":
		return parseCSV(file.Reader)
	case ".xlsx":
		return parseXLSX(file.Reader)
	default:
		return nil, fmt.Errorf("%w: only CSV and XLSX files are supported", ErrUnsupportedFormat)
	}
}

func normalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.ToLower(h))
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.TrimSpace(strings.TrimSuffix(h, "*"))
	}
	return out
}

func toRow(headers, record []string, num int) importRow {
	row := importRow{num: num, values: make(map[string]string, len(headers))}
	for i, value := range record {
		if i < len(headers) {
			row.values[headers[i]] = strings.TrimSpace(value)
		}
	}
	return row
}

func parseCSV(r io.Reader) ([]importRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", ErrInvalidInput, err)
	}
	headers = normalizeHeaders(headers)

	var rows []importRow
	lineNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("%w: error reading line %d: %v", ErrInvalidInput, lineNum, err)
		}
		row := toRow(headers, record, lineNum)
		if row.empty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseXLSX(r io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrInvalidInput)
	}
	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet: %v", ErrInvalidInput, err)
	}
	if len(excelRows) == 0 {
		return nil, nil
	}

	headers := normalizeHeaders(excelRows[0])
	var rows []importRow
	for idx, record := range excelRows[1:] {
		row := toRow(headers, record, idx+2)
		if row.empty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
