package enums

import "fmt"

// FulfillmentState is the preparation mode of a seafood item. It is part of a
// cart line's identity: the same product raw and grilled are two lines.
type FulfillmentState string

const (
	FulfillmentStateRaw     FulfillmentState = "raw"
	FulfillmentStateCooked  FulfillmentState = "cooked"
	FulfillmentStateGrilled FulfillmentState = "grilled"
)

var validFulfillmentStates = []FulfillmentState{
	FulfillmentStateRaw,
	FulfillmentStateCooked,
	FulfillmentStateGrilled,
}

// String implements fmt.Stringer.
func (f FulfillmentState) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentState.
func (f FulfillmentState) IsValid() bool {
	for _, candidate := range validFulfillmentStates {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentState converts raw input into a FulfillmentState.
func ParseFulfillmentState(value string) (FulfillmentState, error) {
	for _, candidate := range validFulfillmentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment state %q", value)
}
