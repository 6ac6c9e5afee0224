package serverutils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessResponse(t *testing.T) {
	res := SuccessResponse("done", map[string]string{"id": "42"})

	assert.True(t, res.Success)
	assert.Equal(t, "done", res.Message)
	assert.Equal(t, "42", res.Data["id"])
}

func TestErrorResponse(t *testing.T) {
	res := ErrorResponse(404, "not found")

	assert.False(t, res.Success)
	assert.Equal(t, 404, res.Code)
	assert.Equal(t, "not found", res.Message)
}

func TestValidateRequest(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
		Date string `validate:"omitempty,datetime=2006-01-02"`
	}

	assert.NoError(t, ValidateRequest(payload{Name: "ok", Date: "2025-06-11"}))

	err := ValidateRequest(payload{Date: "2025-06-11"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "required")

	err = ValidateRequest(payload{Name: "ok", Date: "11/06/2025"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datetime")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/ok", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse[any]("fine", nil))
	})

	res, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.False(t, apiErr.Success)
	assert.Equal(t, fiber.StatusTeapot, apiErr.Code)
	assert.Equal(t, "short and stout", apiErr.Message)

	res, err = app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
