package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bizinsight-api/pkg/models"
	"bizinsight-api/pkg/services"
)

// form fields that pin a role to a header column
var overrideFields = map[string]models.Role{
	"date_column":    models.RoleDate,
	"revenue_column": models.RoleRevenue,
	"product_column": models.RoleProduct,
	"region_column":  models.RoleRegion,
}

var errUploadTooLarge = errors.New("upload too large")

// readUpload reads the multipart "file" field into a table, enforcing maxBytes on the request body.
func readUpload(c *gin.Context, reader *services.TableReader, maxBytes int64) (*models.Table, string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", errUploadTooLarge, maxBytes)
		}
		return nil, "", fmt.Errorf("%w: missing file field: %v", models.ErrUnsupportedFile, err)
	}
	defer file.Close()

	table, err := reader.Read(fileHeader.Filename, file)
	if err != nil {
		return nil, fileHeader.Filename, err
	}
	return table, fileHeader.Filename, nil
}

// overridesFromForm collects the non-empty *_column form fields.
func overridesFromForm(c *gin.Context) map[models.Role]string {
	overrides := make(map[models.Role]string)
	for field, role := range overrideFields {
		if v := strings.TrimSpace(c.PostForm(field)); v != "" {
			overrides[role] = v
		}
	}
	return overrides
}

func formBool(c *gin.Context, field string) (bool, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", field)
	}
	return v, nil
}

// respondPipelineError maps pipeline failures to status codes. result may be nil.
func respondPipelineError(c *gin.Context, err error, result *models.PipelineResult) {
	var unresolved *models.SchemaUnresolvedError
	switch {
	case errors.As(err, &unresolved):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":    false,
			"code":       "schema_unresolved",
			"error":      err.Error(),
			"unresolved": unresolved.Roles,
			"header":     unresolved.Columns.Header,
			"columns":    unresolved.Columns,
		})
	case errors.Is(err, models.ErrInvalidOverride):
		body := gin.H{"success": false, "code": "invalid_override", "error": err.Error()}
		if result != nil {
			body["header"] = result.Columns.Header
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, models.ErrDataFormat):
		c.JSON(http.StatusUnprocessableEntity, cleaningErrorBody("data_format", err, result))
	case errors.Is(err, models.ErrEmptyAfterCleaning):
		c.JSON(http.StatusUnprocessableEntity, cleaningErrorBody("empty_after_cleaning", err, result))
	case errors.Is(err, errUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "code": "upload_too_large", "error": err.Error()})
	case errors.Is(err, models.ErrUnsupportedFile):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": "bad_upload", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "code": "internal", "error": "analysis failed"})
	}
}

func cleaningErrorBody(code string, err error, result *models.PipelineResult) gin.H {
	body := gin.H{"success": false, "code": code, "error": err.Error()}
	if result != nil {
		body["cleaning"] = result.Cleaning
		body["columns"] = result.Columns
	}
	return body
}
