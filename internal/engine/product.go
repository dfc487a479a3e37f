package engine

import (
	"context"
	"fmt"

	"ensure/internal/model"
)

type CreateProductInput struct {
	ProductID  string  `json:"productId"`
	Premium    float64 `json:"premium"`
	Cover      float64 `json:"cover"`
	ProviderID string  `json:"provider"`
}

// CreateProduct registers a new insurance product and appends it to the
// provider's offering.
func (e *Engine) CreateProduct(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if in.ProductID == "" || in.ProviderID == "" {
		return nil, fmt.Errorf("productId and provider are required: %w", ErrValidation)
	}

	product := &model.Product{
		ID:         in.ProductID,
		Premium:    in.Premium,
		Cover:      in.Cover,
		ProviderID: in.ProviderID,
		CreatedAt:  e.timestamp(),
	}

	err := e.store.Atomically(ctx, func(tx Store) error {
		provider, err := tx.GetProvider(ctx, in.ProviderID)
		if err != nil {
			return fmt.Errorf("provider not found: %w", err)
		}
		if err := tx.AddProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to add product: %w", err)
		}
		provider.Products = append(provider.Products, product.ID)
		if err := tx.UpdateProvider(ctx, provider); err != nil {
			return fmt.Errorf("failed to update provider: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record("CreateProduct", in)
	return product, nil
}

type UpdateProductInput struct {
	ProductID string  `json:"productId"`
	Premium   float64 `json:"premium"`
	Cover     float64 `json:"cover"`
}

// UpdateProduct revises a product's premium and cover. Provider and buyer
// links are not editable here.
func (e *Engine) UpdateProduct(ctx context.Context, in UpdateProductInput) (*model.Product, error) {
	var product *model.Product
	err := e.store.Atomically(ctx, func(tx Store) error {
		var err error
		product, err = tx.GetProduct(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("product not found: %w", err)
		}
		product.Premium = in.Premium
		product.Cover = in.Cover
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.record("UpdateProduct", in)
	return product, nil
}

// DeleteProduct withdraws a product from the catalog and removes it from
// the provider's offering. Existing claims keep their product reference.
func (e *Engine) DeleteProduct(ctx context.Context, productID string) error {
	err := e.store.Atomically(ctx, func(tx Store) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("product not found: %w", err)
		}
		provider, err := tx.GetProvider(ctx, product.ProviderID)
		if err == nil {
			kept := provider.Products[:0]
			for _, id := range provider.Products {
				if id != productID {
					kept = append(kept, id)
				}
			}
			provider.Products = kept
			if err := tx.UpdateProvider(ctx, provider); err != nil {
				return fmt.Errorf("failed to update provider: %w", err)
			}
		}
		if err := tx.DeleteProduct(ctx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.record("DeleteProduct", map[string]string{"productId": productID})
	return nil
}

type BuyProductInput struct {
	PatientID string `json:"patient"`
	ProductID string `json:"product"`
}

// BuyProduct debits the patient's balance by the product premium and links
// buyer and product both ways. Fails with ErrInsufficientFunds before any
// mutation when the balance does not cover the premium.
func (e *Engine) BuyProduct(ctx context.Context, in BuyProductInput) error {
	err := e.store.Atomically(ctx, func(tx Store) error {
		patient, err := tx.GetPatient(ctx, in.PatientID)
		if err != nil {
			return fmt.Errorf("patient not found: %w", err)
		}
		product, err := tx.GetProduct(ctx, in.ProductID)
		if err != nil {
			return fmt.Errorf("product not found: %w", err)
		}

		if patient.Balance < product.Premium {
			return ErrInsufficientFunds
		}

		patient.Balance -= product.Premium
		patient.Products = append(patient.Products, product.ID)
		product.Buyers = append(product.Buyers, patient.ID)

		if err := tx.UpdatePatient(ctx, patient); err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.record("BuyProduct", in)
	_ = e.bus.PublishPatient(in.PatientID, map[string]interface{}{
		"type":      "product.purchased",
		"productId": in.ProductID,
		"patientId": in.PatientID,
	})

	return nil
}
