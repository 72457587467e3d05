package response

import (
	"errors"
	"net/http"

	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Success                   bool                 `json:"success"`
	Message                   string               `json:"message"`
	MissingProducts           []string             `json:"missingProducts,omitempty"`
	InsufficientStockProducts []errs.StockShortage `json:"insufficientStockProducts,omitempty"`
}

// WriteSuccessResponse writes {success: true, message, ...fields}.
func WriteSuccessResponse(c echo.Context, message string, fields echo.Map) error {
	resp := echo.Map{"success": true}
	if message != "" {
		resp["message"] = message
	}
	for k, v := range fields {
		resp[k] = v
	}

	return c.JSON(http.StatusOK, resp)
}

// WriteErrorResponse writes {success: false, message}. Errors not declared in errs are
// logged and answered with the generic internal server error message.
func WriteErrorResponse(c echo.Context, err error) error {
	statusCode := errs.GetErrorStatusCode(err)
	resp := ErrorResponse{}
	resp.Success = false
	resp.Message = err.Error()
	if !errs.Known(err) {
		log.Ctx(c.Request().Context()).Error().Err(err).Str("component", "WriteErrorResponse").Msg("")
		resp.Message = errs.ErrInternalServer.Error()
	}

	var missing *errs.MissingProductsError
	if errors.As(err, &missing) {
		resp.MissingProducts = missing.ProductIDs
	}

	var insufficient *errs.InsufficientStockError
	if errors.As(err, &insufficient) {
		resp.InsufficientStockProducts = insufficient.Products
	}

	return c.JSON(statusCode, resp)
}
