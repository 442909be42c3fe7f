package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-grocery/models"
	"go-grocery/services"
	"go-grocery/utils"
)

func TestWriteError_Status(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{&services.Error{Kind: services.KindNotFound, Message: "x"}, http.StatusNotFound, "NotFound"},
		{&services.Error{Kind: services.KindInvalidArgument, Message: "x"}, http.StatusBadRequest, "InvalidArgument"},
		{&services.Error{Kind: services.KindEmptyCart, Message: "x"}, http.StatusBadRequest, "EmptyCart"},
		{&services.Error{Kind: services.KindUnauthorized, Message: "x"}, http.StatusUnauthorized, "Unauthorized"},
		{&services.Error{Kind: services.KindForbidden, Message: "x"}, http.StatusForbidden, "Forbidden"},
		{&services.Error{Kind: services.KindConflict, Message: "x"}, http.StatusConflict, "Conflict"},
		{errors.New("socket closed"), http.StatusInternalServerError, "Internal"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(zap.NewNop(), rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body utils.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Error)
		})
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &services.Error{Kind: services.KindInternal, Message: "db exploded", Err: errors.New("auth failed for user root")}
	writeError(zap.NewNop(), rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

	assert.NotContains(t, rec.Body.String(), "root")
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestWriteError_InsufficientStockCarriesAvailable(t *testing.T) {
	rec := httptest.NewRecorder()
	err := services.ValidateStock(testProduct(0), 1)
	writeError(zap.NewNop(), rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Available)
	assert.Equal(t, 0, *body.Available)
}

func TestDecode_ValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"shippingAddress":{"city":"Pune"},"paymentMethod":"bitcoin"}`))

	var dst placeOrderRequest
	ok := decode(rec, req, &dst)

	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fields := map[string]string{}
	for _, d := range body.Details {
		fields[d.Field] = d.Message
	}
	assert.Contains(t, fields, "shippingAddress.street")
	assert.Contains(t, fields, "shippingAddress.zipCode")
	assert.Equal(t, "must be one of: card cash_on_delivery", fields["paymentMethod"])
	assert.NotContains(t, fields, "shippingAddress.city")
}

func TestDecode_MalformedJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":`))

	var dst updateItemRequest
	assert.False(t, decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func testProduct(stock int) models.Product {
	return models.Product{Name: "Milk", Stock: stock}
}
