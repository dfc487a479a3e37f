package memstore_test

import (
	"context"
	"errors"
	"testing"

	"ensure/internal/engine"
	"ensure/internal/memstore"
	"ensure/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicallyRollsBackOnError(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	require.NoError(t, store.AddPatient(ctx, &model.Patient{ID: "p1", Balance: 100}))

	boom := errors.New("boom")
	err := store.Atomically(ctx, func(tx engine.Store) error {
		patient, err := tx.GetPatient(ctx, "p1")
		require.NoError(t, err)
		patient.Balance = 0
		require.NoError(t, tx.UpdatePatient(ctx, patient))
		if err := tx.AddDoctor(ctx, &model.Doctor{ID: "d1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither write survived the failed commit
	patient, err := store.GetPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, patient.Balance)

	_, err = store.GetDoctor(ctx, "d1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestAtomicallyCommitsOnSuccess(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	err := store.Atomically(ctx, func(tx engine.Store) error {
		if err := tx.AddPatient(ctx, &model.Patient{ID: "p1", Balance: 10}); err != nil {
			return err
		}
		return tx.AddDoctor(ctx, &model.Doctor{ID: "d1"})
	})
	require.NoError(t, err)

	_, err = store.GetPatient(ctx, "p1")
	assert.NoError(t, err)
	_, err = store.GetDoctor(ctx, "d1")
	assert.NoError(t, err)
}

func TestRegistrySentinels(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	_, err := store.GetClaim(ctx, "missing")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	require.NoError(t, store.AddBill(ctx, &model.Bill{ID: "b1"}))
	err = store.AddBill(ctx, &model.Bill{ID: "b1"})
	assert.ErrorIs(t, err, engine.ErrDuplicateKey)

	err = store.UpdateClaim(ctx, &model.Claim{ID: "missing"})
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	require.NoError(t, store.AddProduct(ctx, &model.Product{ID: "prod1"}))
	require.NoError(t, store.DeleteProduct(ctx, "prod1"))

	_, err := store.GetProduct(ctx, "prod1")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	err = store.DeleteProduct(ctx, "prod1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestDeleteProductRefusedWhileClaimed(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	require.NoError(t, store.AddProduct(ctx, &model.Product{ID: "prod1"}))
	require.NoError(t, store.AddClaim(ctx, &model.Claim{ID: "c1", ProductID: "prod1"}))

	err := store.DeleteProduct(ctx, "prod1")
	assert.ErrorIs(t, err, engine.ErrReferenced)

	// The product is still there
	_, err = store.GetProduct(ctx, "prod1")
	assert.NoError(t, err)
}
