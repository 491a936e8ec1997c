package pos

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

func ValidateOrderOpen(ctx context.Context, req OrderOpenRequest) []string {
	var errors []string

	if req.TableID == uuid.Nil {
		errors = append(errors, "table_id is required")
	}

	return errors
}

func ValidateItemAdd(ctx context.Context, req ItemAddRequest) []string {
	var errors []string

	if req.FoodID == uuid.Nil {
		errors = append(errors, "food_id is required")
	}

	if req.Quantity < 1 {
		errors = append(errors, "quantity must be at least 1")
	}

	return errors
}

func ValidateMenuItemUpsert(ctx context.Context, req MenuItemRequest) []string {
	var errors []string

	if strings.TrimSpace(req.Name) == "" {
		errors = append(errors, "name is required")
	}

	if req.Category != CategoryFood && req.Category != CategoryDrink {
		errors = append(errors, "category must be food or drink")
	}

	if req.Price < 0 {
		errors = append(errors, "price cannot be negative")
	}

	return errors
}
