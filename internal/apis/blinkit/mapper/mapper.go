package mapper

import (
	"encoding/json"
	"fmt"

	"blinkitparser/internal/apis/blinkit"
	"blinkitparser/internal/domain/models"
)

// ProductCardWidget is the snippet discriminator for product tiles; every
// other widget type on a listing page is UI furniture.
const ProductCardWidget = "product_card_snippet_type_2"

// FromSnippet normalizes one listing tile into a Product row. The second
// return is false when the snippet is not a product card or lacks the
// identity fields a row is useless without.
func FromSnippet(s blinkit.Snippet, cat models.Category, date string) (models.Product, bool) {
	if s.WidgetType != ProductCardWidget || len(s.Data) == 0 {
		return models.Product{}, false
	}

	data := s.Data
	cartItem := dig(data, "atc_action", "add_to_cart", "cart_item")

	p := models.Product{
		Date:         date,
		L1Category:   cat.L1Category,
		L1CategoryID: cat.L1CategoryID,
		L2Category:   cat.L2Category,
		L2CategoryID: cat.L2CategoryID,
		StoreID:      stringAt(data, "meta", "merchant_id"),
		VariantID:    stringAt(data, "product_id"),
		VariantName:  stringAt(data, "name", "text"),
		GroupID:      stringAt(data, "group_id"),
		SellingPrice: stringAt(cartItem, "price"),
		MRP:          stringAt(cartItem, "mrp"),
		InStock:      !boolOr(data, "is_sold_out", true), // нет поля => считаем распроданным
		Inventory:    stringAt(data, "inventory"),
		IsSponsored:  boolOr(data, "is_sponsored", false), // апи это поле пока не отдаёт
		ImageURL:     stringAt(data, "image", "url"),
		Brand:        stringAt(data, "brand_name", "text"),
	}

	if p.VariantID == "" || p.VariantName == "" {
		return models.Product{}, false
	}
	return p, true
}

// dig walks nested objects; a miss at any hop returns nil.
func dig(m map[string]any, path ...string) map[string]any {
	cur := m
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// stringAt renders the value at path as text. Numbers keep the exact text
// they arrived with (the decoder hands them over as json.Number), so ids
// and prices never pick up float formatting artifacts.
func stringAt(m map[string]any, path ...string) string {
	if m == nil || len(path) == 0 {
		return ""
	}
	if len(path) > 1 {
		m = dig(m, path[:len(path)-1]...)
		if m == nil {
			return ""
		}
	}

	switch t := m[path[len(path)-1]].(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%t", t)
	}
	return ""
}

// boolOr reads a bool field, falling back to def when it is absent or not
// a bool at all.
func boolOr(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}
