package normalize

import (
	"github.com/valyala/fastjson"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

const errUnsupportedJSON = "unsupported JSON structure"

// fromJSON accepts either an array of objects (columns are the first
// element's keys in source order) or a single object (a key/value table).
func fromJSON(src []byte) (*dataset.Dataset, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(src)
	if err != nil {
		return nil, formatErr(KindJSON, "invalid json", err)
	}

	switch root.Type() {
	case fastjson.TypeArray:
		return fromJSONArray(root)
	case fastjson.TypeObject:
		return fromJSONObject(root)
	default:
		return nil, formatErr(KindJSON, errUnsupportedJSON, nil)
	}
}

func fromJSONArray(root *fastjson.Value) (*dataset.Dataset, error) {
	items, _ := root.Array()
	if len(items) == 0 || items[0].Type() != fastjson.TypeObject {
		return nil, formatErr(KindJSON, errUnsupportedJSON, nil)
	}

	first, _ := items[0].Object()
	var cols []string
	seen := make(map[string]bool)
	first.Visit(func(key []byte, _ *fastjson.Value) {
		k := string(key)
		if !seen[k] {
			seen[k] = true
			cols = append(cols, k)
		}
	})

	ds := dataset.New(cols...)
	for _, item := range items {
		obj, err := item.Object()
		if err != nil {
			return nil, formatErr(KindJSON, errUnsupportedJSON, err)
		}
		row := make(dataset.Row, len(cols))
		for _, col := range cols {
			v := obj.Get(col)
			if v == nil {
				row[col] = dataset.StringValue("")
				continue
			}
			row[col] = jsonValue(v)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func fromJSONObject(root *fastjson.Value) (*dataset.Dataset, error) {
	obj, _ := root.Object()
	ds := dataset.New("key", "value")
	obj.Visit(func(key []byte, v *fastjson.Value) {
		ds.Rows = append(ds.Rows, dataset.Row{
			"key":   dataset.StringValue(string(key)),
			"value": jsonValue(v),
		})
	})
	return ds, nil
}

// jsonValue converts a scalar to its tagged cell. Nested arrays and
// objects are kept as their compact JSON text.
func jsonValue(v *fastjson.Value) dataset.Value {
	switch v.Type() {
	case fastjson.TypeNull:
		return dataset.NullValue()
	case fastjson.TypeString:
		return dataset.StringValue(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		return dataset.NumberValue(v.String())
	case fastjson.TypeTrue:
		return dataset.BoolValue(true)
	case fastjson.TypeFalse:
		return dataset.BoolValue(false)
	default:
		return dataset.StringValue(v.String())
	}
}
