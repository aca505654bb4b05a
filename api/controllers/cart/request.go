package cart

// AddItemRequest adds quantity units of a catalog product; quantity defaults to 1.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"omitempty,gt=0,lte=999"`
}

// SetQuantityRequest overwrites a line quantity; zero removes the line.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=999"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
