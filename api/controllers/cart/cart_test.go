package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linkcart/storefront-core/api/middleware"
	cartsvc "github.com/linkcart/storefront-core/internal/cart"
	"github.com/linkcart/storefront-core/internal/pricing"
	"github.com/linkcart/storefront-core/pkg/enums"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
)

type stubCartService struct {
	view   *cartsvc.View
	result *cartsvc.ApplyResult
	err    error

	lastSession string
	lastProduct uuid.UUID
	lastQty     int
	lastCode    string
	cleared     bool
}

func (s *stubCartService) Get(ctx context.Context, sessionID string) (*cartsvc.View, error) {
	s.lastSession = sessionID
	return s.view, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*cartsvc.View, error) {
	s.lastSession, s.lastProduct, s.lastQty = sessionID, productID, qty
	return s.view, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cartsvc.View, error) {
	s.lastSession, s.lastProduct = sessionID, productID
	return s.view, s.err
}

func (s *stubCartService) SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*cartsvc.View, error) {
	s.lastSession, s.lastProduct, s.lastQty = sessionID, productID, qty
	return s.view, s.err
}

func (s *stubCartService) Clear(ctx context.Context, sessionID string) error {
	s.lastSession = sessionID
	s.cleared = true
	return s.err
}

func (s *stubCartService) ApplyCoupon(ctx context.Context, sessionID, code string) (*cartsvc.ApplyResult, error) {
	s.lastSession, s.lastCode = sessionID, code
	return s.result, s.err
}

func (s *stubCartService) RemoveCoupon(ctx context.Context, sessionID string) (*cartsvc.View, error) {
	s.lastSession = sessionID
	return s.view, s.err
}

func (s *stubCartService) Load(ctx context.Context, sessionID string) (*pricing.Cart, error) {
	return pricing.NewCart(), s.err
}

const testSession = "5f1d7c1e-2b0a-4b8e-9d7e-0c6f5e4a3b21"

func sessionRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithCartSession(req.Context(), testSession))
}

func withProductParam(req *http.Request, productID string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("productId", productID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func sampleView() *cartsvc.View {
	c := pricing.NewCart()
	c.AddLine(pricing.Product{ID: "p1", Name: "Mug", UnitPrice: decimal.RequireFromString("12.50")}, 2)
	return cartsvc.NewView(testSession, c)
}

func TestCartFetchSuccess(t *testing.T) {
	svc := &stubCartService{view: sampleView()}
	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 2 || !envelope.Data.Total.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("unexpected cart view %+v", envelope.Data)
	}
	if svc.lastSession != testSession {
		t.Fatalf("expected session %s got %s", testSession, svc.lastSession)
	}
}

func TestCartFetchMissingSession(t *testing.T) {
	resp := httptest.NewRecorder()
	CartFetch(&stubCartService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartFetchDependencyFailure(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeDependency, "load cart")}
	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestCartAddItemDefaultsQuantity(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{view: sampleView()}
	body := `{"product_id":"` + productID.String() + `"}`

	resp := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastProduct != productID || svc.lastQty != 1 {
		t.Fatalf("unexpected add call product=%s qty=%d", svc.lastProduct, svc.lastQty)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	cases := map[string]string{
		"missing product":   `{"quantity":2}`,
		"negative quantity": `{"product_id":"` + uuid.NewString() + `","quantity":-1}`,
		"client price":      `{"product_id":"` + uuid.NewString() + `","unit_price":"0.01"}`,
		"huge quantity":     `{"product_id":"` + uuid.NewString() + `","quantity":9223372036854775807}`,
		"over line maximum": `{"product_id":"` + uuid.NewString() + `","quantity":1000}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCartService{view: sampleView()}
			resp := httptest.NewRecorder()
			CartAddItem(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/items", body))
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
			if svc.lastSession != "" {
				t.Fatalf("service must not be called on invalid input")
			}
		})
	}
}

func TestCartUpdateItemPassesQuantity(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{view: sampleView()}
	req := withProductParam(sessionRequest(http.MethodPatch, "/api/v1/cart/items/"+productID.String(), `{"quantity":0}`), productID.String())

	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastProduct != productID || svc.lastQty != 0 {
		t.Fatalf("unexpected set quantity call product=%s qty=%d", svc.lastProduct, svc.lastQty)
	}
}

func TestCartUpdateItemRejectsQuantityOverMaximum(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{view: sampleView()}
	req := withProductParam(sessionRequest(http.MethodPatch, "/api/v1/cart/items/"+productID.String(), `{"quantity":1000}`), productID.String())

	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastSession != "" {
		t.Fatalf("service must not be called on invalid input")
	}
}

func TestCartUpdateItemNotInCart(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")}
	req := withProductParam(sessionRequest(http.MethodPatch, "/api/v1/cart/items/"+productID.String(), `{"quantity":3}`), productID.String())

	resp := httptest.NewRecorder()
	CartUpdateItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartRemoveItemRejectsBadParam(t *testing.T) {
	svc := &stubCartService{view: sampleView()}
	req := withProductParam(sessionRequest(http.MethodDelete, "/api/v1/cart/items/abc", ""), "abc")

	resp := httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClearReturnsEmptyView(t *testing.T) {
	svc := &stubCartService{}
	resp := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodDelete, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.cleared {
		t.Fatal("expected clear to be called")
	}
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 0 || len(envelope.Data.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", envelope.Data)
	}
}

func TestCouponApplyRejectionIsNotAnError(t *testing.T) {
	svc := &stubCartService{result: &cartsvc.ApplyResult{
		Result: pricing.Result{Reason: enums.CouponRejectionExpired, Message: "This coupon has expired"},
		Cart:   sampleView(),
	}}
	resp := httptest.NewRecorder()
	CouponApply(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/coupon", `{"code":"spring10"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Success bool   `json:"success"`
			Reason  string `json:"reason"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Success || envelope.Data.Reason != string(enums.CouponRejectionExpired) {
		t.Fatalf("unexpected coupon result %+v", envelope.Data)
	}
	if svc.lastCode != "spring10" {
		t.Fatalf("expected code forwarded, got %q", svc.lastCode)
	}
}

func TestCouponApplyRateLimited(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeRateLimit, "too many coupon attempts")}
	resp := httptest.NewRecorder()
	CouponApply(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodPost, "/api/v1/cart/coupon", `{"code":"X"}`))

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
}

func TestCouponRemove(t *testing.T) {
	svc := &stubCartService{view: sampleView()}
	resp := httptest.NewRecorder()
	CouponRemove(svc, nil).ServeHTTP(resp, sessionRequest(http.MethodDelete, "/api/v1/cart/coupon", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
