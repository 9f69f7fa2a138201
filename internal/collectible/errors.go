package collectible

import "errors"

// Errors returned by registry and issuance operations. All are
// comparable with errors.Is; a failed operation leaves no state behind.
var (
	ErrNotFound         = errors.New("collectible does not exist")
	ErrAlreadyExists    = errors.New("collectible already exists")
	ErrCapacityExceeded = errors.New("max supply for the collectible was reached")
	ErrSaleNotPermitted = errors.New("sale is not permitted for the collectible")
	ErrAlreadyClaimed   = errors.New("presale collectible already claimed")
	ErrInstanceNotFound = errors.New("collectible instance does not exist")
	ErrRequestNotFound  = errors.New("mint request does not exist")
	ErrTooManyUnits     = errors.New("requested units exceed the collectible max usage")
)
