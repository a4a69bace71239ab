package mapper

import (
	"encoding/json"
	"testing"

	"blinkitparser/internal/apis/blinkit"
	"blinkitparser/internal/domain/models"
)

var testCategory = models.Category{
	L1Category:   "Dairy & Breakfast",
	L1CategoryID: "14",
	L2Category:   "Milk",
	L2CategoryID: "922",
}

// productCard returns a fully populated tile the way the listing API ships
// it after a UseNumber decode.
func productCard() blinkit.Snippet {
	return blinkit.Snippet{
		WidgetType: ProductCardWidget,
		Data: map[string]any{
			"product_id":   json.Number("381144"),
			"group_id":     json.Number("126668"),
			"inventory":    json.Number("25"),
			"is_sold_out":  false,
			"is_sponsored": true,
			"name":         map[string]any{"text": "Amul Taaza Toned Milk"},
			"brand_name":   map[string]any{"text": "Amul"},
			"image":        map[string]any{"url": "https://cdn.example/amul.jpg"},
			"meta":         map[string]any{"merchant_id": json.Number("30146")},
			"atc_action": map[string]any{
				"add_to_cart": map[string]any{
					"cart_item": map[string]any{
						"price": json.Number("27"),
						"mrp":   json.Number("28.50"),
					},
				},
			},
		},
	}
}

func TestFromSnippet_FullCard(t *testing.T) {
	p, ok := FromSnippet(productCard(), testCategory, "2026-08-25")
	if !ok {
		t.Fatal("FromSnippet rejected a full product card")
	}

	want := models.Product{
		Date:         "2026-08-25",
		L1Category:   "Dairy & Breakfast",
		L1CategoryID: "14",
		L2Category:   "Milk",
		L2CategoryID: "922",
		StoreID:      "30146",
		VariantID:    "381144",
		VariantName:  "Amul Taaza Toned Milk",
		GroupID:      "126668",
		SellingPrice: "27",
		MRP:          "28.50",
		InStock:      true,
		Inventory:    "25",
		IsSponsored:  true,
		ImageURL:     "https://cdn.example/amul.jpg",
		BrandID:      "",
		Brand:        "Amul",
	}
	if p != want {
		t.Errorf("got %+v\nwant %+v", p, want)
	}
}

func TestFromSnippet_WrongWidgetType(t *testing.T) {
	s := productCard()
	s.WidgetType = "banner_snippet_type_1"

	if _, ok := FromSnippet(s, testCategory, "2026-08-25"); ok {
		t.Error("accepted a non-product widget")
	}
}

func TestFromSnippet_EmptyData(t *testing.T) {
	for _, data := range []map[string]any{nil, {}} {
		s := productCard()
		s.Data = data
		if _, ok := FromSnippet(s, testCategory, "2026-08-25"); ok {
			t.Errorf("accepted a card with data %v", data)
		}
	}
}

func TestFromSnippet_RequiresIdentity(t *testing.T) {
	s := productCard()
	delete(s.Data, "product_id")
	if _, ok := FromSnippet(s, testCategory, "2026-08-25"); ok {
		t.Error("accepted a card without product_id")
	}

	s = productCard()
	s.Data["name"] = map[string]any{"text": ""}
	if _, ok := FromSnippet(s, testCategory, "2026-08-25"); ok {
		t.Error("accepted a card without a name")
	}
}

func TestFromSnippet_StockDefaults(t *testing.T) {
	s := productCard()
	delete(s.Data, "is_sold_out")
	delete(s.Data, "is_sponsored")

	p, ok := FromSnippet(s, testCategory, "2026-08-25")
	if !ok {
		t.Fatal("FromSnippet rejected the card")
	}
	if p.InStock {
		t.Error("InStock = true for a card without is_sold_out; absent means sold out")
	}
	if p.IsSponsored {
		t.Error("IsSponsored = true for a card without is_sponsored")
	}
}

func TestFromSnippet_MissingPriceBlockStillMaps(t *testing.T) {
	s := productCard()
	delete(s.Data, "atc_action")

	p, ok := FromSnippet(s, testCategory, "2026-08-25")
	if !ok {
		t.Fatal("FromSnippet rejected a card without a cart block")
	}
	if p.SellingPrice != "" || p.MRP != "" {
		t.Errorf("prices = %q/%q, want empty", p.SellingPrice, p.MRP)
	}
	if p.VariantID != "381144" {
		t.Errorf("variant_id = %q", p.VariantID)
	}
}

func TestFromSnippet_Pure(t *testing.T) {
	s := productCard()

	first, ok1 := FromSnippet(s, testCategory, "2026-08-25")
	second, ok2 := FromSnippet(s, testCategory, "2026-08-25")
	if !ok1 || !ok2 {
		t.Fatal("FromSnippet rejected the card")
	}
	if first != second {
		t.Errorf("normalizing twice diverged:\n%+v\n%+v", first, second)
	}
}

func TestFromSnippet_PlainFloatsRenderCleanly(t *testing.T) {
	s := productCard()
	s.Data["product_id"] = float64(381144)
	s.Data["atc_action"] = map[string]any{
		"add_to_cart": map[string]any{
			"cart_item": map[string]any{
				"price": float64(27),
				"mrp":   float64(28.5),
			},
		},
	}

	p, ok := FromSnippet(s, testCategory, "2026-08-25")
	if !ok {
		t.Fatal("FromSnippet rejected the card")
	}
	if p.VariantID != "381144" {
		t.Errorf("variant_id = %q, want 381144", p.VariantID)
	}
	if p.SellingPrice != "27" || p.MRP != "28.5" {
		t.Errorf("prices = %q/%q, want 27/28.5", p.SellingPrice, p.MRP)
	}
}
