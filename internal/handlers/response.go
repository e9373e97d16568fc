package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gst-billing-service/internal/clients"
	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/repository"
	"gst-billing-service/internal/services"
	"gst-billing-service/internal/storage"
	"gst-billing-service/internal/validation"
)

const dateLayout = "2006-01-02"

// PaginationInfo describes the page returned by a list endpoint
type PaginationInfo struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
}

// ListResponse wraps a page of results
type ListResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationInfo `json:"pagination"`
}

func respondList(c *gin.Context, data interface{}, total int64, page repository.Page) {
	c.JSON(http.StatusOK, ListResponse{
		Data: data,
		Pagination: PaginationInfo{
			Limit:   page.Limit,
			Offset:  page.Offset,
			Total:   total,
			HasNext: int64(page.Offset+page.Limit) < total,
		},
	})
}

// respondError translates service and repository errors into a CustomError
// and hands it to middleware.ErrorHandler.
func respondError(c *gin.Context, err error) {
	respondResourceError(c, "Resource", err)
}

// respondResourceError names the resource in not-found messages
func respondResourceError(c *gin.Context, resource string, err error) {
	_ = c.Error(toHTTPError(err, resource))
	c.Abort()
}

func toHTTPError(err error, resource string) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return middleware.NewValidationError(map[string]interface{}{"fields": []validation.FieldError(verrs)})
	}

	var custom middleware.CustomError
	if errors.As(err, &custom) {
		return custom
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return middleware.NewNotFoundError(resource)
	case errors.Is(err, services.ErrBankDetailsNotFound):
		return middleware.CustomError{Code: middleware.ErrCodeNotFound, Message: "Bank details not configured", StatusCode: http.StatusNotFound}

	case errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, repository.ErrInUse),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, services.ErrInvoiceNotEditable),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrPhoneTaken),
		errors.Is(err, services.ErrEmailDisabled):
		return middleware.NewConflictError(err.Error(), nil)

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrInactiveUser):
		return middleware.NewUnauthorizedError(err.Error())

	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, services.ErrNoRecipient),
		errors.Is(err, storage.ErrUnsupportedFileType),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrInvalidPath):
		return middleware.NewBadRequestError(err.Error(), nil)

	case errors.Is(err, clients.ErrMailDisabled):
		return middleware.NewUnavailableError("Email delivery is not configured")
	}
	return err
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(middleware.NewBadRequestError("Invalid request body", map[string]interface{}{"reason": err.Error()}))
		c.Abort()
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(middleware.NewBadRequestError(fmt.Sprintf("Invalid %s", name), nil))
		c.Abort()
		return uuid.Nil, false
	}
	return id, true
}

// pageFromQuery reads limit/offset, falling back to page/pageSize
func pageFromQuery(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if limit == 0 {
		limit, _ = strconv.Atoi(c.Query("pageSize"))
	}
	if pageNo, _ := strconv.Atoi(c.Query("page")); pageNo > 1 && offset == 0 {
		size := limit
		if size <= 0 {
			size = repository.DefaultPageSize
		}
		offset = (pageNo - 1) * size
	}

	return repository.Page{Limit: limit, Offset: offset}.Normalize()
}

// parseDateQuery returns nil when the parameter is absent
func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, middleware.NewBadRequestError(fmt.Sprintf("%s must be YYYY-MM-DD", key), map[string]interface{}{"value": raw})
	}
	return &t, nil
}

func periodFromQuery(c *gin.Context) (services.Period, bool) {
	start, err := parseDateQuery(c, "startDate")
	if err != nil {
		respondError(c, err)
		return services.Period{}, false
	}
	end, err := parseDateQuery(c, "endDate")
	if err != nil {
		respondError(c, err)
		return services.Period{}, false
	}
	return services.Period{Start: start, End: end}, true
}

// sendDocument writes a rendered file with its checksum. Inline documents are
// shown in the browser, everything else is downloaded.
func sendDocument(c *gin.Context, doc *services.Document, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.FileName))
	c.Header("X-Checksum", doc.Checksum)
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
