package catalog

import "github.com/go-faster/jx"

// DecodeAddresses decodes the delivery address feed. Both shapes seen in
// the wild are accepted: a bare JSON array of strings, or an object with
// an "addresses" array. Anything else decodes to an empty list.
func DecodeAddresses(data []byte) []string {
	d := jx.DecodeBytes(data)

	switch d.Next() {
	case jx.Array:
		return decodeStringArr(d)
	case jx.Object:
		var out []string
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "addresses" && d.Next() == jx.Array {
				out = decodeStringArr(d)
				return nil
			}
			return d.Skip()
		}); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

func decodeStringArr(d *jx.Decoder) []string {
	var out []string
	if err := d.Arr(func(d *jx.Decoder) error {
		if s := lenientString(d); s != "" {
			out = append(out, s)
		}
		return nil
	}); err != nil {
		return nil
	}
	return out
}
