package vaultgen

import (
	"github.com/morrisxyang/xreflect"
)

// SetNestedProp sets a (possibly nested) field on obj by its dotted path.
func SetNestedProp(obj any, value any, fieldpath string) error {
	return xreflect.SetEmbedField(obj, fieldpath, value)
}
