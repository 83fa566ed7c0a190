package utils

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StringKey builds a single-attribute string key.
func StringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{name: &types.AttributeValueMemberS{Value: value}}
}

// CompositeKey builds a partition + sort string key.
func CompositeKey(pkName, pk, skName, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pk},
		skName: &types.AttributeValueMemberS{Value: sk},
	}
}

// ContainsAny builds "(contains(#attr, :p0) OR contains(#attr, :p1) ...)" for values,
// registering the placeholders in names and values. Empty values yields "".
func ContainsAny(attr, prefix string, values []string, names map[string]string, exprValues map[string]types.AttributeValue) string {
	if len(values) == 0 {
		return ""
	}
	nameRef := "#" + attr
	names[nameRef] = attr

	parts := make([]string, len(values))
	for i, v := range values {
		ph := fmt.Sprintf(":%s%d", prefix, i)
		exprValues[ph] = &types.AttributeValueMemberS{Value: v}
		parts[i] = fmt.Sprintf("contains(%s, %s)", nameRef, ph)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
