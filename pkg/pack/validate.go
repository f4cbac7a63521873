package pack

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// newInputDef validates a decoded input block and produces its definition.
// An input is optional iff it declares a usable (non-null) default.
func newInputDef(ib *inputBlock) (*InputDef, error) {
	ty, err := typeFromKeyword(ib.Type)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", ib.Name, err)
	}

	in := &InputDef{
		Name:        ib.Name,
		Type:        ty,
		Description: ib.Description,
	}

	if ib.Default != nil && !ib.Default.IsNull() {
		v, err := checkDefault(*ib.Default, ty)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", ib.Name, err)
		}
		in.Default = &v
		in.Optional = true
	}

	return in, nil
}

// typeFromKeyword maps a manifest type keyword onto a cty type. An empty
// keyword means the author opted out of static checking.
func typeFromKeyword(keyword string) (cty.Type, error) {
	switch keyword {
	case "", "any":
		return cty.DynamicPseudoType, nil
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	default:
		return cty.NilType, fmt.Errorf("unknown type keyword %q (want string, number, bool or any)", keyword)
	}
}

// checkDefault converts a declared default to the input's type, rejecting
// defaults that cannot represent the declared type.
func checkDefault(v cty.Value, ty cty.Type) (cty.Value, error) {
	if ty.Equals(cty.DynamicPseudoType) {
		return v, nil
	}
	converted, err := convert.Convert(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("default %s does not conform to declared type %s: %w",
			v.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return converted, nil
}
