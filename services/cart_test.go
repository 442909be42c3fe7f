package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/services"
)

func TestCart_AddUpdateRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)

	cart, err := f.cart.AddItem(ctx, userID, apples.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 120.0, cart.Items[0].Price)
	assert.Equal(t, 240.0, cart.TotalAmount)

	cart, err = f.cart.UpdateItem(ctx, userID, apples.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 600.0, cart.TotalAmount)

	cart, err = f.cart.RemoveItem(ctx, userID, apples.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.TotalAmount)
}

func TestCart_StockLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	milk := f.addProduct(t, "Milk", 60, 3)

	_, err := f.cart.AddItem(ctx, userID, milk.ID, 2, nil)
	require.NoError(t, err)

	_, err = f.cart.UpdateItem(ctx, userID, milk.ID, 4)
	require.ErrorIs(t, err, services.ErrInsufficientStock)
	var svcErr *services.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 3, svcErr.Available)

	cart, err := f.carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCart_AddIsCumulativeAndChecksResultingQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	eggs := f.addProduct(t, "Eggs", 90, 5)

	_, err := f.cart.AddItem(ctx, userID, eggs.ID, 3, nil)
	require.NoError(t, err)

	_, err = f.cart.AddItem(ctx, userID, eggs.ID, 3, nil)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	cart, err := f.cart.AddItem(ctx, userID, eggs.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 450.0, cart.TotalAmount)
}

func TestCart_PriceOverrideAndSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	bread := f.addProduct(t, "Whole Wheat Bread", 45, 10)

	override := 40.0
	cart, err := f.cart.AddItem(ctx, userID, bread.ID, 1, &override)
	require.NoError(t, err)
	assert.Equal(t, 40.0, cart.Items[0].Price)

	// later price changes do not touch the line
	bread.Price = 60
	require.NoError(t, f.products.Update(ctx, &bread))
	cart, err = f.cart.AddItem(ctx, userID, bread.ID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 40.0, cart.Items[0].Price)
	assert.Equal(t, 80.0, cart.TotalAmount)
}

func TestCart_AddRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	chips := f.addProduct(t, "Potato Chips", 30, 10)

	_, err := f.cart.AddItem(ctx, userID, chips.ID, 0, nil)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	negative := -1.0
	_, err = f.cart.AddItem(ctx, userID, chips.ID, 1, &negative)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	_, err = f.cart.AddItem(ctx, userID, primitive.NewObjectID(), 1, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)

	chips.IsActive = false
	require.NoError(t, f.products.Update(ctx, &chips))
	_, err = f.cart.AddItem(ctx, userID, chips.ID, 1, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCart_UpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	juice := f.addProduct(t, "Orange Juice", 120, 35)

	_, err := f.cart.AddItem(ctx, userID, juice.ID, 1, nil)
	require.NoError(t, err)

	first, err := f.cart.UpdateItem(ctx, userID, juice.ID, 4)
	require.NoError(t, err)
	second, err := f.cart.UpdateItem(ctx, userID, juice.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, first.TotalAmount, second.TotalAmount)
}

func TestCart_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	juice := f.addProduct(t, "Orange Juice", 120, 35)

	_, err := f.cart.UpdateItem(ctx, userID, juice.ID, 1)
	assert.ErrorIs(t, err, services.ErrNotFound, "no cart")

	_, err = f.cart.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	_, err = f.cart.UpdateItem(ctx, userID, juice.ID, 1)
	assert.ErrorIs(t, err, services.ErrNotFound, "no line")

	_, err = f.cart.UpdateItem(ctx, userID, juice.ID, 0)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

func TestCart_UpdateChecksStockBeforeLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	juice := f.addProduct(t, "Orange Juice", 120, 3)

	_, err := f.cart.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)

	_, err = f.cart.UpdateItem(ctx, userID, juice.ID, 10)
	require.ErrorIs(t, err, services.ErrInsufficientStock)
	var svcErr *services.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 3, svcErr.Available)

	_, err = f.cart.UpdateItem(ctx, userID, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCart_RemoveAbsentLineIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)

	_, err := f.cart.RemoveItem(ctx, userID, apples.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = f.cart.AddItem(ctx, userID, apples.ID, 1, nil)
	require.NoError(t, err)
	cart, err := f.cart.RemoveItem(ctx, userID, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 120.0, cart.TotalAmount)
}

func TestCart_Clear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()

	_, err := f.cart.Clear(ctx, userID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	_, err = f.cart.AddItem(ctx, userID, apples.ID, 3, nil)
	require.NoError(t, err)

	cart, err := f.cart.Clear(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)
}

func TestCart_GetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()

	a, err := f.cart.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	b, err := f.cart.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Empty(t, b.Items)
	assert.Zero(t, b.TotalAmount)
}

func TestCart_View(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := primitive.NewObjectID()
	apples := f.addProduct(t, "Fresh Apples", 120, 50)
	gone := f.addProduct(t, "Bananas", 60, 30)

	_, err := f.cart.AddItem(ctx, userID, apples.ID, 5, nil)
	require.NoError(t, err)
	cart, err := f.cart.AddItem(ctx, userID, gone.ID, 1, nil)
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(ctx, gone.ID))

	view, err := f.cart.View(ctx, cart)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Fresh Apples", view.Items[0].Product.Name)
	assert.Equal(t, gone.ID, view.Items[1].Product.ID)
	assert.Empty(t, view.Items[1].Product.Name)
	assert.Equal(t, 660.0, view.Totals.ItemsPrice)
	assert.Equal(t, 0.0, view.Totals.ShippingPrice)
	assert.Equal(t, 66.0, view.Totals.TaxPrice)
	assert.Equal(t, 726.0, view.Totals.TotalPrice)
}
