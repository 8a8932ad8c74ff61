package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	httpHandlers "github.com/jobson-okosun/InkMind-API/internal/adapters/http"
	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/infrastructure/logger"
)

// GenericErrorMessage replaces unexpected error details in production
const GenericErrorMessage = "Something went very wrong!"

// errorHandler is the only place error responses are rendered
func errorHandler(log *logger.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := classify(err, production)
		if code >= http.StatusInternalServerError {
			log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				WithError(err).
				Errorw("Request failed",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
				)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, resp)
		}
		if err != nil {
			log.Errorw("Error sending response", "error", err)
		}
	}
}

func classify(err error, production bool) (int, httpHandlers.ErrorResponse) {
	var (
		he      *echo.HTTPError
		invalid validator.ValidationErrors
		code    = http.StatusInternalServerError
		message string
	)

	switch {
	case errors.As(err, &he):
		code = he.Code
		message = fmt.Sprint(he.Message)
	case errors.As(err, &invalid):
		code = http.StatusBadRequest
		message = validationMessage(invalid)
	case errors.Is(err, entities.ErrInvalidID):
		code = http.StatusBadRequest
		message = "Invalid ID format"
	case errors.Is(err, entities.ErrValidation):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, entities.ErrNoteNotFound):
		code = http.StatusNotFound
		message = "No note found with that ID"
	case errors.Is(err, entities.ErrJobNotFound):
		code = http.StatusNotFound
		message = "No job found with that ID"
	}

	if code < http.StatusInternalServerError {
		return code, httpHandlers.ErrorResponse{Status: httpHandlers.StatusFail, Message: message}
	}

	resp := httpHandlers.ErrorResponse{Status: httpHandlers.StatusError, Message: GenericErrorMessage}
	if !production {
		if message != "" {
			resp.Message = message
		} else {
			resp.Message = err.Error()
		}
		resp.Error = err.Error()
	}
	return code, resp
}

func validationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return "Invalid input data. " + strings.Join(parts, ". ")
}
