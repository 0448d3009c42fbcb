package catalog

import (
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// DecodeProducts decodes a JSON array of catalog entries leniently.
//
// Catalog feeds come from spreadsheets and hand-edited files, so the
// decoder never fails the whole feed: an entry that cannot be decoded is
// skipped, a price that is not a number becomes zero, and a malformed
// discount rule becomes "no discount". Prices and percentages may arrive
// as JSON numbers or as numeric strings.
func DecodeProducts(data []byte) []Product {
	d := jx.DecodeBytes(data)

	var out []Product
	if err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.Object {
			return d.Skip()
		}
		p, ok := decodeProduct(d)
		if ok && p.ID != "" {
			out = append(out, p)
		}
		return nil
	}); err != nil {
		// Not an array at all: degrade to an empty list.
		return nil
	}
	return out
}

func decodeProduct(d *jx.Decoder) (Product, bool) {
	var (
		p         Product
		threshold int
		percent   decimal.Decimal
	)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			p.ID = lenientString(d)
		case "name":
			p.Name = lenientString(d)
		case "description":
			p.Description = lenientString(d)
		case "image":
			p.Image = lenientString(d)
		case "price":
			p.Price = lenientDecimal(d)
		case "flavours":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				if f := lenientString(d); f != "" {
					p.Flavours = append(p.Flavours, f)
				}
				return nil
			})
		case "discountThreshold":
			threshold = int(lenientDecimal(d).IntPart())
		case "discountPercent":
			percent = lenientDecimal(d)
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return Product{}, false
	}

	rule := DiscountRule{Threshold: threshold, PercentOff: percent}
	if rule.Valid() {
		p.Discount = &rule
	}
	return p, true
}

// lenientString reads a string value; numbers are rendered as their
// literal text and anything else decodes to "".
func lenientString(d *jx.Decoder) string {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return ""
		}
		return s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return ""
		}
		return n.String()
	default:
		_ = d.Skip()
		return ""
	}
}

// lenientDecimal reads a decimal from a JSON number or a numeric string.
// Absent, null, and invalid values all decode to zero; the distinction is
// deliberately collapsed here because the catalog contract says malformed
// numerics mean "free / no discount", never an error.
func lenientDecimal(d *jx.Decoder) decimal.Decimal {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero
		}
		return v
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return v
	default:
		_ = d.Skip()
		return decimal.Zero
	}
}
