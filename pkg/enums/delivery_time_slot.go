package enums

import "fmt"

// DeliveryTimeSlot is one of the fixed 2-hour delivery windows. The set is not
// configurable at runtime.
type DeliveryTimeSlot string

const (
	DeliveryTimeSlotMorning       DeliveryTimeSlot = "10:00-12:00"
	DeliveryTimeSlotMidday        DeliveryTimeSlot = "12:00-14:00"
	DeliveryTimeSlotAfternoon     DeliveryTimeSlot = "14:00-16:00"
	DeliveryTimeSlotLateAfternoon DeliveryTimeSlot = "16:00-18:00"
	DeliveryTimeSlotEvening       DeliveryTimeSlot = "18:00-20:00"
)

var validDeliveryTimeSlots = []DeliveryTimeSlot{
	DeliveryTimeSlotMorning,
	DeliveryTimeSlotMidday,
	DeliveryTimeSlotAfternoon,
	DeliveryTimeSlotLateAfternoon,
	DeliveryTimeSlotEvening,
}

// String implements fmt.Stringer.
func (d DeliveryTimeSlot) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryTimeSlot.
func (d DeliveryTimeSlot) IsValid() bool {
	for _, candidate := range validDeliveryTimeSlots {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryTimeSlot converts raw input into a DeliveryTimeSlot.
func ParseDeliveryTimeSlot(value string) (DeliveryTimeSlot, error) {
	for _, candidate := range validDeliveryTimeSlots {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery time slot %q", value)
}
