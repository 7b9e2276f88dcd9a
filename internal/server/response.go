package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/logger"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries pagination metadata.
type Meta struct {
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error *apperr.Error `json:"error"`
}

// respondError translates err to its HTTP status and JSON body. Server-side
// causes are logged with the request id and never serialized to the client.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	appErr := apperr.From(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error("request failed", logger.Fields(
			logger.FieldRequestID, c.GetString(ctxRequestID),
			"code", string(appErr.Code),
			logger.FieldError, appErr.Error(),
		))
	} else if appErr.Code == apperr.CodeMalformedIdentity || appErr.Code == apperr.CodePolicyViolation {
		log.Warn("request rejected", logger.Fields(
			logger.FieldRequestID, c.GetString(ctxRequestID),
			"code", string(appErr.Code),
			"path", c.Request.URL.Path,
		))
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, ErrorResponse{Error: appErr})
}

// respondOK sends a 200 response wrapping data.
func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// respondOKWithMeta sends a 200 response with data and pagination metadata.
func respondOKWithMeta(c *gin.Context, data any, meta *Meta) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: meta})
}

// respondCreated sends a 201 response wrapping data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

// respondNoContent sends a 204 with no body.
func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
