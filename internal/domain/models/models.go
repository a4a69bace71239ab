package models

import "strconv"

// Location is one row of the locations input table. Coordinates stay
// verbatim strings: they travel into request headers, not arithmetic.
type Location struct {
	Latitude  string
	Longitude string
}

// Category is one row of the categories input table, a two-level
// category descriptor. IDs stay strings; they go straight into query params.
type Category struct {
	L1Category   string
	L1CategoryID string
	L2Category   string
	L2CategoryID string
}

// Product is one normalized listing row. String fields hold "" when the
// upstream payload had no value at that position.
type Product struct {
	Date         string
	L1Category   string
	L1CategoryID string
	L2Category   string
	L2CategoryID string
	StoreID      string
	VariantID    string
	VariantName  string
	GroupID      string
	SellingPrice string
	MRP          string
	InStock      bool
	Inventory    string
	IsSponsored  bool
	ImageURL     string
	BrandID      string // no upstream source field, always empty
	Brand        string
}

// Fields maps output column names to formatted values. The CSV sink picks
// columns from this map in schema order; names absent from the schema are
// simply not written.
func (p Product) Fields() map[string]string {
	return map[string]string{
		"date":           p.Date,
		"l1_category":    p.L1Category,
		"l1_category_id": p.L1CategoryID,
		"l2_category":    p.L2Category,
		"l2_category_id": p.L2CategoryID,
		"store_id":       p.StoreID,
		"variant_id":     p.VariantID,
		"variant_name":   p.VariantName,
		"group_id":       p.GroupID,
		"selling_price":  p.SellingPrice,
		"mrp":            p.MRP,
		"in_stock":       strconv.FormatBool(p.InStock),
		"inventory":      p.Inventory,
		"is_sponsored":   strconv.FormatBool(p.IsSponsored),
		"image_url":      p.ImageURL,
		"brand_id":       p.BrandID,
		"brand":          p.Brand,
	}
}
