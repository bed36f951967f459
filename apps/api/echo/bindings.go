package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	WatchDurationRequest struct {
		Seconds *int `json:"seconds" validate:"required,min=0"`
	}

	ProgressRequest struct {
		Progress *int `json:"progress" validate:"required,min=0,max=100"`
	}
)

func (r *WatchDurationRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r *ProgressRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// paramID parses a positive integer path param. Anything else is reported as not found.
func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// pageNumber reads the ?page query param. Invalid values fall back to the first page.
func pageNumber(ctx echo.Context) int {
	n, err := strconv.Atoi(ctx.QueryParam("page"))
	if err != nil {
		return 1
	}
	return n
}
