package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mithai/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, 5*time.Second)
}

func TestLogin_FormEncodedGrant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Token", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "password", r.Form.Get("grant_type"))
		require.Equal(t, "9876543210", r.Form.Get("username"))
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})

	tok, err := c.Login(context.Background(), "9876543210", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok", tok.AccessToken)
}

func TestLogin_RejectionIsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.Login(context.Background(), "9876543210", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestDo_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":0,"data":[]}`))
	})
	_, err := c.GetCoupons(context.Background(), "tok")
	require.NoError(t, err)
}

func TestDo_EnvelopeStatusIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":5,"message":"something broke"}`))
	})
	_, err := c.GetDeliverySlots(context.Background(), "tok")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 5, apiErr.Status)
	require.Equal(t, "something broke", apiErr.Message)
}

func TestDo_HTTP401IsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.GetDeliverySlots(context.Background(), "expired")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateCoupon_NumericFieldsMayBeStrings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "SWEET10", body["code"])
		require.InDelta(t, 929.0, body["orderAmount"], 0.001)
		_, _ = w.Write([]byte(`{"status":0,"data":[{"DiscountAmount":"92.9","DiscountType":"Percentage Discount","DiscountValue":"10","Message":"ok"}]}`))
	})

	row, err := c.ValidateCoupon(context.Background(), "tok", "SWEET10", 929)
	require.NoError(t, err)
	require.InDelta(t, 92.9, row.Amount(), 0.001)
	require.InDelta(t, 10.0, row.Value(), 0.001)
	require.Equal(t, domain.DiscountPercentage, row.Type())
}

func TestValidateCoupon_EmptyRowsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"data":[]}`))
	})
	_, err := c.ValidateCoupon(context.Background(), "tok", "NOPE", 100)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestGetAddresses_NoRecordIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"message":"No Record Found"}`))
	})
	addrs, err := c.GetAddresses(context.Background(), "tok", "9876543210")
	require.NoError(t, err)
	require.Empty(t, addrs)
}

func TestPlaceOrder_DecodesOrderID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req PlaceOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, int64(919876543210), req.UserID)
		require.Len(t, req.Items, 1)
		_, _ = w.Write([]byte(`{"status":0,"data":{"OrderId":"ORD-7"}}`))
	})

	res, err := c.PlaceOrder(context.Background(), "tok", &PlaceOrderRequest{
		UserID: 919876543210, SlotID: 1,
		PaymentMethod: "cod", PaymentStatus: "Unpaid",
		Subtotal: 100, DeliveryFee: 29, Total: 129,
		DeliveryAddressID: "a1", EstimatedDelivery: "2026-01-01T00:00:00Z",
		Items: []OrderItem{{ProductID: "p1", ProductName: "Kaju Katli", Unit: "500g", Price: 100, Quantity: 1, Category: "c", Image: "i"}},
	})
	require.NoError(t, err)
	require.Equal(t, "ORD-7", res.OrderID)
}

func TestOrderItem_OptionalFieldsNeverNull(t *testing.T) {
	raw, err := json.Marshal(OrderItem{
		ProductID: "p1", ProductName: "A", Unit: "500g",
		Price: 10, Quantity: 1, Category: "c", Image: "i",
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	require.Equal(t, "", m["VariantId"])
	require.Equal(t, "", m["Tags"])
	_, hasOriginal := m["OriginalPrice"]
	require.False(t, hasOriginal, "zero original price must be omitted")
}
