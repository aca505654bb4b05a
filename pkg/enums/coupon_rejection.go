package enums

import "fmt"

// CouponRejection is the reason a coupon could not be applied.
type CouponRejection string

const (
	CouponRejectionInvalidCode       CouponRejection = "invalid_code"
	CouponRejectionInactive          CouponRejection = "inactive"
	CouponRejectionExpired           CouponRejection = "expired"
	CouponRejectionUsageLimitReached CouponRejection = "usage_limit_reached"
	CouponRejectionBelowMinimum      CouponRejection = "below_minimum"
	CouponRejectionProductNotInCart  CouponRejection = "product_not_in_cart"
)

var validCouponRejections = []CouponRejection{
	CouponRejectionInvalidCode,
	CouponRejectionInactive,
	CouponRejectionExpired,
	CouponRejectionUsageLimitReached,
	CouponRejectionBelowMinimum,
	CouponRejectionProductNotInCart,
}

// String implements fmt.Stringer.
func (c CouponRejection) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponRejection.
func (c CouponRejection) IsValid() bool {
	for _, candidate := range validCouponRejections {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponRejection converts raw input into a CouponRejection.
func ParseCouponRejection(value string) (CouponRejection, error) {
	for _, candidate := range validCouponRejections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon rejection %q", value)
}
