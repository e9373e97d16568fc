package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gst-billing-service/internal/gst"
	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/validation"
)

// CalculateRequest is the body of POST /gst/calculate. InterState wins over
// the seller/buyer states when both are given.
type CalculateRequest struct {
	Items           []gst.LineItem `json:"items" binding:"required"`
	InterState      *bool          `json:"interState"`
	SellerState     string         `json:"sellerState"`
	SellerStateCode string         `json:"sellerStateCode"`
	BuyerState      string         `json:"buyerState"`
	BuyerStateCode  string         `json:"buyerStateCode"`
}

// CalculateResponse is the computed invoice totals
type CalculateResponse struct {
	InterState bool `json:"interState"`
	gst.InvoiceTotals
	TotalTax decimal.Decimal `json:"totalTax"`
}

// Calculator inputs past these bounds are rejected before any work is done.
var (
	maxLineValue   = decimal.New(1, 18)
	maxWordsAmount = decimal.New(1, 20)
)

type wordsRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type validateRequest struct {
	Value string `json:"value"`
}

// GSTHandler exposes the stateless tax calculator and identifier checks
type GSTHandler struct{}

// NewGSTHandler creates a new GST handler
func NewGSTHandler() *GSTHandler {
	return &GSTHandler{}
}

// Calculate computes invoice totals without saving anything
// @Summary Calculate invoice totals
// @Description Split GST per line into CGST/SGST or IGST, round the grand total and spell it out
// @Tags gst
// @Accept json
// @Produce json
// @Param request body CalculateRequest true "Line items"
// @Success 200 {object} CalculateResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /gst/calculate [post]
func (h *GSTHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if !bindJSON(c, &req) {
		return
	}

	// an empty item list is valid here and yields zero totals
	var errs validation.Errors
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if !item.Quantity.IsPositive() {
			errs.Add(field+".quantity", validation.CodeInvalid, "Quantity must be greater than zero")
		}
		if item.Rate.IsNegative() {
			errs.Add(field+".rate", validation.CodeNegative, "Rate cannot be negative")
		} else if item.Quantity.Mul(item.Rate).GreaterThan(maxLineValue) {
			errs.Add(field+".rate", validation.CodeInvalid, "Line value is too large")
		}
		if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
			errs.Add(field+".taxRate", validation.CodeInvalid, "Tax rate must be between 0 and 100")
		}
	}
	if err := errs.Err(); err != nil {
		respondError(c, err)
		return
	}

	interState := false
	if req.InterState != nil {
		interState = *req.InterState
	} else if req.SellerState != "" || req.SellerStateCode != "" {
		interState = gst.IsInterState(
			gst.Party{State: req.SellerState, StateCode: req.SellerStateCode},
			gst.Party{State: req.BuyerState, StateCode: req.BuyerStateCode},
		)
	}

	totals := gst.Aggregate(req.Items, interState)
	c.JSON(http.StatusOK, CalculateResponse{
		InterState:    interState,
		InvoiceTotals: totals,
		TotalTax:      totals.TotalTax(),
	})
}

// Words handles POST /api/v1/gst/words
func (h *GSTHandler) Words(c *gin.Context) {
	var req wordsRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Amount.Abs().GreaterThanOrEqual(maxWordsAmount) {
		var errs validation.Errors
		errs.Add("amount", validation.CodeInvalid, "Amount is too large")
		respondError(c, errs.Err())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount": req.Amount.Round(2),
		"words":  gst.NumToWords(req.Amount),
	})
}

// States handles GET /api/v1/gst/states
func (h *GSTHandler) States(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gst.States()})
}

// Validate handles POST /api/v1/validate/:kind
func (h *GSTHandler) Validate(c *gin.Context) {
	var req validateRequest
	if !bindJSON(c, &req) {
		return
	}

	value := strings.TrimSpace(req.Value)
	response := gin.H{}
	switch kind := c.Param("kind"); kind {
	case "gstin":
		value = validation.NormalizeGSTIN(value)
		response["valid"] = validation.ValidateGSTIN(value)
		if code, ok := validation.StateCodeFromGSTIN(value); ok {
			response["stateCode"] = code
		}
	case "pan":
		value = strings.ToUpper(value)
		response["valid"] = validation.ValidatePAN(value)
	case "ifsc":
		value = strings.ToUpper(value)
		response["valid"] = validation.ValidateIFSC(value)
	case "upi":
		value = strings.ToLower(value)
		response["valid"] = validation.ValidateUPI(value)
	case "pincode":
		response["valid"] = validation.ValidatePincode(value)
	case "phone":
		normalized, ok := validation.NormalizePhone(value)
		response["valid"] = ok
		if ok {
			value = normalized
		}
	default:
		_ = c.Error(middleware.NewNotFoundError(fmt.Sprintf("Validator %q", kind)))
		return
	}

	response["value"] = value
	c.JSON(http.StatusOK, response)
}
