package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockledger/internal/domain/catalog"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// loadProducts fetches products by id. Missing ids are simply absent from the map.
func loadProducts(ctx context.Context, repo catalog.ProductRepository, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	result := make(map[uuid.UUID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	products, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

func unknownProduct(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", shared.ErrUnknownProduct, id)
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102"),
		strings.ToUpper(uuid.New().String()[:8]))
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
