package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/internal/coupons"
	product "github.com/linkcart/storefront-core/internal/products"
	"github.com/linkcart/storefront-core/internal/pricing"
	"github.com/linkcart/storefront-core/pkg/db/models"
	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/logger"
)

const couponAttemptWindow = time.Minute

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type attemptLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service manages storefront carts keyed by an opaque cart session id.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*View, error)
	SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error)
	Clear(ctx context.Context, sessionID string) error
	ApplyCoupon(ctx context.Context, sessionID, code string) (*ApplyResult, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*View, error)
	// Load returns the restored pricing cart without touching it.
	Load(ctx context.Context, sessionID string) (*pricing.Cart, error)
}

// Options tunes the cart service.
type Options struct {
	// CouponAttemptsPerMinute caps coupon codes tried per session; 0 disables it.
	CouponAttemptsPerMinute int
	Now                     func() time.Time
}

type service struct {
	sessions *SessionStore
	products productFinder
	coupons  couponFinder
	limiter  attemptLimiter
	opts     Options
	logg     *logger.Logger
}

// NewService builds the cart service. limiter may be nil when coupon attempts are not capped.
func NewService(sessions *SessionStore, products productFinder, coupons couponFinder, limiter attemptLimiter, opts Options, logg *logger.Logger) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("cart session store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		sessions: sessions,
		products: products,
		coupons:  coupons,
		limiter:  limiter,
		opts:     opts,
		logg:     logg,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(sessionID, c), nil
}

func (s *service) Load(ctx context.Context, sessionID string) (*pricing.Cart, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	c, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !p.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	c.AddLine(product.ToPricing(p), qty)
	return s.save(ctx, sessionID, c)
}

// RemoveItem is idempotent: removing an absent line returns the cart unchanged.
func (s *service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveLine(productID.String()) {
		return NewView(sessionID, c), nil
	}
	return s.save(ctx, sessionID, c)
}

func (s *service) SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Line(productID.String()); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	c.SetQuantity(productID.String(), qty)
	return s.save(ctx, sessionID, c)
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// ApplyCoupon fetches the coupon fresh on every attempt. Rejections are
// returned as a result with the unchanged cart, not as errors.
func (s *service) ApplyCoupon(ctx context.Context, sessionID, code string) (*ApplyResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.allowAttempt(ctx, sessionID); err != nil {
		return nil, err
	}

	stored, err := s.coupons.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	res := c.ApplyCoupon(coupons.ToPricing(stored), s.opts.Now())
	if !res.Success {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"coupon_code": coupons.NormalizeCode(code),
			"reason":      res.Reason.String(),
		}), "cart.coupon_rejected")
		return &ApplyResult{Result: res, Cart: NewView(sessionID, c)}, nil
	}

	view, err := s.save(ctx, sessionID, c)
	if err != nil {
		return nil, err
	}
	return &ApplyResult{Result: res, Cart: view}, nil
}

func (s *service) RemoveCoupon(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.AppliedCoupon() == nil {
		return NewView(sessionID, c), nil
	}
	c.RemoveCoupon()
	return s.save(ctx, sessionID, c)
}

func (s *service) save(ctx context.Context, sessionID string, c *pricing.Cart) (*View, error) {
	if err := s.sessions.Save(ctx, sessionID, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return NewView(sessionID, c), nil
}

// allowAttempt fails open when the limiter itself is unavailable.
func (s *service) allowAttempt(ctx context.Context, sessionID string) error {
	if s.limiter == nil || s.opts.CouponAttemptsPerMinute <= 0 {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "coupon:"+sessionID, int64(s.opts.CouponAttemptsPerMinute), couponAttemptWindow)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.coupon_limiter_unavailable")
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many coupon attempts, try again shortly")
	}
	return nil
}

func validateSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return nil
}
