package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"go-grocery/models"
	"go-grocery/services"
	"go-grocery/store"
)

var sampleProducts = []models.Product{
	{Name: "Fresh Apples", Description: "Sweet and crunchy red apples, perfect for snacks and desserts.", Price: 120, OriginalPrice: 150, Category: models.CategoryFruits, Stock: 50, Unit: models.UnitKg, Brand: "Fresh Farms", Featured: true},
	{Name: "Bananas", Description: "Ripe yellow bananas, great for smoothies and healthy snacks.", Price: 60, Category: models.CategoryFruits, Stock: 30, Unit: models.UnitDozen, Brand: "Tropical", Featured: true},
	{Name: "Carrots", Description: "Fresh organic carrots, rich in vitamins and perfect for cooking.", Price: 40, Category: models.CategoryVegetables, Stock: 25, Unit: models.UnitKg, Brand: "Organic Greens"},
	{Name: "Milk", Description: "Pure cow milk, pasteurized and homogenized for daily consumption.", Price: 60, Category: models.CategoryDairy, Stock: 100, Unit: models.UnitLiter, Brand: "Pure Dairy", Featured: true},
	{Name: "Eggs", Description: "Farm fresh eggs, rich in protein and essential nutrients.", Price: 90, Category: models.CategoryDairy, Stock: 60, Unit: models.UnitDozen, Brand: "Happy Hens"},
	{Name: "Chicken Breast", Description: "Boneless chicken breast, perfect for healthy meals and grilling.", Price: 350, Category: models.CategoryMeat, Stock: 20, Unit: models.UnitKg, Brand: "Premium Meats"},
	{Name: "Whole Wheat Bread", Description: "Freshly baked whole wheat bread, great for sandwiches and toast.", Price: 45, Category: models.CategoryBakery, Stock: 40, Unit: models.UnitPack, Brand: "Bakery Fresh"},
	{Name: "Orange Juice", Description: "100% pure orange juice without any added sugar or preservatives.", Price: 120, Category: models.CategoryBeverages, Stock: 35, Unit: models.UnitLiter, Brand: "Juice King"},
	{Name: "Potato Chips", Description: "Crispy and delicious potato chips, perfect for snacking.", Price: 30, Category: models.CategorySnacks, Stock: 80, Unit: models.UnitPack, Brand: "Crunchy"},
	{Name: "Tomatoes", Description: "Fresh red tomatoes, ideal for salads, curries and cooking.", Price: 25, Category: models.CategoryVegetables, Stock: 45, Unit: models.UnitKg, Brand: "Farm Fresh"},
}

// seedCatalog replaces every product with the sample catalog and, when
// ADMIN_EMAIL and ADMIN_PASSWORD are set, makes sure an admin exists.
func seedCatalog(ctx context.Context, logger *zap.Logger, products store.ProductStore, users *services.UserService) error {
	existing, _, err := products.List(ctx, models.ProductFilter{})
	if err != nil {
		return fmt.Errorf("listing products: %w", err)
	}
	for _, p := range existing {
		if err := products.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("clearing products: %w", err)
		}
	}

	now := time.Now().UTC()
	for i := range sampleProducts {
		p := sampleProducts[i]
		p.IsActive = true
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := products.Create(ctx, &p); err != nil {
			return fmt.Errorf("creating %s: %w", p.Name, err)
		}
	}
	logger.Info("sample products added", zap.Int("count", len(sampleProducts)))

	email, password := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	created, err := users.EnsureAdmin(ctx, services.RegisterInput{Name: "Admin", Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	if created {
		logger.Info("admin user created", zap.String("email", email))
	}
	return nil
}
