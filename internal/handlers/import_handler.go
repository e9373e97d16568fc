package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gst-billing-service/internal/middleware"
	"gst-billing-service/internal/services"
)

// maxImportFileSize bounds uploaded spreadsheets
const maxImportFileSize = 10 << 20

// ImportHandler serves bulk import templates and uploads for one entity
type ImportHandler struct {
	imports services.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(imports services.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// GetImportTemplate returns the template definition or a blank file
// GET /api/v1/{customers|products}/import/template?format=json|csv|xlsx
func (h *ImportHandler) GetImportTemplate(entity services.ImportEntity) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", "json")
		if format == "json" {
			template, err := h.imports.Template(entity)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"template": template})
			return
		}

		doc, err := h.imports.TemplateFile(entity, services.ImportFormat(format))
		if err != nil {
			respondError(c, err)
			return
		}
		sendDocument(c, doc, false)
	}
}

// Import loads rows from an uploaded CSV or Excel file
// @Summary Bulk import
// @Description Import customers or products. With validateOnly=true rows are checked but not saved.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param validateOnly query bool false "Only validate"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} middleware.ErrorResponse
// @Security BearerAuth
// @Router /customers/import [post]
func (h *ImportHandler) Import(entity services.ImportEntity) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			_ = c.Error(middleware.NewBadRequestError("File is required", nil))
			return
		}
		if header.Size > maxImportFileSize {
			_ = c.Error(middleware.NewBadRequestError("File exceeds the 10MB limit", map[string]interface{}{"size": header.Size}))
			return
		}

		file, err := header.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()

		validateOnly := c.Query("validateOnly") == "true"
		result, err := h.imports.Import(c.Request.Context(), middleware.GetActor(c), entity,
			services.ImportFile{Filename: header.Filename, Reader: file}, validateOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
