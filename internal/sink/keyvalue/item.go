package keyvalue

import (
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/dbroute/internal/dataset"
)

const (
	keyAttribute = "id"

	// DynamoDB numbers carry at most 38 significant digits and a magnitude
	// between 1e-130 and 9.99e125.
	maxSignificantDigits = 38
	maxExponent          = 125
	minExponent          = -130
)

var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// numberText returns the canonical decimal text of s when s is a number
// DynamoDB can store exactly.
func numberText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !numberPattern.MatchString(s) {
		return "", false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	if d.IsZero() {
		return "0", true
	}

	digits := strings.TrimLeft(d.Coefficient().String(), "-")
	trimmed := strings.TrimRight(digits, "0")
	if len(trimmed) > maxSignificantDigits {
		return "", false
	}
	magnitude := int(d.Exponent()) + len(digits) - 1
	if magnitude > maxExponent || magnitude < minExponent {
		return "", false
	}
	return d.String(), true
}

// buildItem converts one row into an item. The key is the row's own id
// cell when present, otherwise a fresh UUID. Empty cells are omitted.
func buildItem(columns []string, row dataset.Row) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue, len(columns)+1)

	for _, col := range columns {
		text := row.Get(col).Text()
		if text == "" {
			continue
		}
		if col == keyAttribute {
			item[col] = &types.AttributeValueMemberS{Value: text}
			continue
		}
		if n, ok := numberText(text); ok {
			item[col] = &types.AttributeValueMemberN{Value: n}
			continue
		}
		item[col] = &types.AttributeValueMemberS{Value: text}
	}

	if _, ok := item[keyAttribute]; !ok {
		item[keyAttribute] = &types.AttributeValueMemberS{Value: uuid.NewString()}
	}
	return item
}

// itemKey returns the key attribute of item.
func itemKey(item map[string]types.AttributeValue) string {
	if s, ok := item[keyAttribute].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
