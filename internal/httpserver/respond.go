// Package httpserver binds the services to echo routes and shapes every
// response into the message/errCode envelope.
package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/logging"
)

// Response is the envelope of every endpoint. ErrCode is 0 on success.
type Response struct {
	Message    string      `json:"message"`
	ErrCode    int         `json:"errCode"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalItems      int64 `json:"totalItems"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

func NewPagination(page, limit int, total int64) *Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{
		Page:            page,
		Limit:           limit,
		TotalItems:      total,
		TotalPages:      pages,
		HasNextPage:     page < pages,
		HasPreviousPage: page > 1 && total > 0,
	}
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Message: message, Data: data})
}

func okPaged(c echo.Context, message string, data any, p *Pagination) error {
	return c.JSON(http.StatusOK, Response{Message: message, Data: data, Pagination: p})
}

// ErrorHandler maps any error into the envelope. Unknown errors are logged
// and collapsed into the generic 500 so storage details never leak.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ae := apperr.From(err)
	if ae.Code == apperr.CodeServer {
		if he, okHTTP := err.(*echo.HTTPError); okHTTP {
			// echo's own errors (404 route, 405, body too large).
			msg := http.StatusText(he.Code)
			if s, okStr := he.Message.(string); okStr {
				msg = s
			}
			code := apperr.CodeServer
			if he.Code < 500 {
				code = apperr.CodeValidation
				if he.Code == http.StatusNotFound {
					code = apperr.CodeNotFound
				}
			}
			_ = c.JSON(he.Code, Response{Message: msg, ErrCode: code})
			return
		}
		logging.FromContext(c.Request().Context()).Error("unhandled_error",
			"path", c.Path(), "error", err)
	}

	_ = c.JSON(ae.Status, Response{Message: ae.Message, ErrCode: ae.Code})
}
