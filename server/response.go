package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/podscribe/errors"
)

// DataResponse wraps every successful body as {"data": ..., "meta": ...}.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta describes a list page.
type Meta struct {
	Limit int `json:"limit,omitempty"`
	Total int `json:"total"`
}

// RespondWithError writes err as an ErrorResponse. Errors that are not an
// AppError become a 500 and are attached to the gin context for logging.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		_ = c.Error(err)
		appErr = apperrors.Internal(err)
	}
	c.JSON(appErr.HTTPStatus, appErr.ToResponse())
}

func RespondOK(c *gin.Context, data any) { respond(c, http.StatusOK, data, nil) }

func RespondOKWithMeta(c *gin.Context, data any, meta *Meta) { respond(c, http.StatusOK, data, meta) }

// RespondAccepted is used when a run was started but has not finished.
func RespondAccepted(c *gin.Context, data any) { respond(c, http.StatusAccepted, data, nil) }

func respond(c *gin.Context, status int, data any, meta *Meta) {
	c.JSON(status, DataResponse{Data: data, Meta: meta})
}
