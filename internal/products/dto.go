package products

// Filters describe the inputs supported by the catalog list.
type Filters struct {
	Query         string
	OnlyAvailable bool
}
