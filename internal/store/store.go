package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/velmart/storefront/internal/domain"
)

// wrap translates driver-level failures into domain errors. A store call that
// ran out of its deadline surfaces as StoreUnavailable rather than hanging the
// request chain.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
