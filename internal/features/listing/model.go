package listing

import (
	"errors"
	"sort"
)

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownFilter   = errors.New("unknown filter")
	ErrInvalidID       = errors.New("invalid record id")
	ErrNotFound        = errors.New("record not found")
	ErrTooManyIDs      = errors.New("too many matching records to enumerate")
	ErrTooManyItems    = errors.New("too many records to resolve")
)

// Fields maintained by the listing layer on every freight document.
const (
	FieldDeleted    = "deleted"
	FieldDeletedAt  = "deleted_at"
	FieldDeletedBy  = "deleted_by"
	FieldExcludedAt = "excluded_at"
	FieldExcludedBy = "excluded_by"
	FieldCreatedAt  = "created_at"
)

// Column is one column of a printed manifest.
type Column struct {
	Field  string `json:"field"`
	Header string `json:"header"`
}

// CategoryField is a filterable categorical field. Values lists the accepted
// values; an empty list accepts any value (e.g. free-form city names).
type CategoryField struct {
	Field  string   `json:"field"`
	Label  string   `json:"label"`
	Values []string `json:"values,omitempty"`
}

func (c CategoryField) accepts(v string) bool {
	if len(c.Values) == 0 {
		return true
	}
	for _, allowed := range c.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// ResourceSchema describes how one list screen's records are stored and
// filtered.
type ResourceSchema struct {
	Name         string                   `json:"name"`
	Label        string                   `json:"label"`
	Collection   string                   `json:"-"`
	SearchFields []string                 `json:"search_fields"`
	DateField    string                   `json:"date_field"`
	Categories   map[string]CategoryField `json:"categories"`
	SortField    string                   `json:"sort_field"`
	PrintColumns []Column                 `json:"print_columns"`
}

var resources = map[string]ResourceSchema{
	"consignments": {
		Name:         "consignments",
		Label:        "Consignment Notes",
		Collection:   "consignment_notes",
		SearchFields: []string{"cn_number", "consignor", "consignee", "vehicle_no"},
		DateField:    "booking_date",
		Categories: map[string]CategoryField{
			"status":       {Field: "status", Label: "Status", Values: []string{"booked", "in_transit", "delivered", "cancelled"}},
			"payment_mode": {Field: "payment_mode", Label: "Payment", Values: []string{"paid", "to_pay", "tbb"}},
			"origin":       {Field: "origin", Label: "Origin"},
			"destination":  {Field: "destination", Label: "Destination"},
		},
		SortField: "booking_date",
		PrintColumns: []Column{
			{Field: "cn_number", Header: "CN No."},
			{Field: "booking_date", Header: "Date"},
			{Field: "consignor", Header: "Consignor"},
			{Field: "consignee", Header: "Consignee"},
			{Field: "origin", Header: "From"},
			{Field: "destination", Header: "To"},
			{Field: "packages", Header: "Pkgs"},
			{Field: "weight_kg", Header: "Weight (kg)"},
			{Field: "freight_amount", Header: "Freight"},
			{Field: "payment_mode", Header: "Payment"},
		},
	},
	"trip_sheets": {
		Name:         "trip_sheets",
		Label:        "Trip Sheets",
		Collection:   "trip_sheets",
		SearchFields: []string{"trip_number", "vehicle_no", "driver_name"},
		DateField:    "trip_date",
		Categories: map[string]CategoryField{
			"status":      {Field: "status", Label: "Status", Values: []string{"open", "closed"}},
			"origin":      {Field: "origin", Label: "Origin"},
			"destination": {Field: "destination", Label: "Destination"},
		},
		SortField: "trip_date",
		PrintColumns: []Column{
			{Field: "trip_number", Header: "Trip No."},
			{Field: "trip_date", Header: "Date"},
			{Field: "vehicle_no", Header: "Vehicle"},
			{Field: "driver_name", Header: "Driver"},
			{Field: "origin", Header: "From"},
			{Field: "destination", Header: "To"},
			{Field: "consignment_count", Header: "CNs"},
			{Field: "status", Header: "Status"},
		},
	},
	"parties": {
		Name:         "parties",
		Label:        "Parties",
		Collection:   "parties",
		SearchFields: []string{"name", "gstin", "phone"},
		DateField:    FieldCreatedAt,
		Categories: map[string]CategoryField{
			"type": {Field: "type", Label: "Type", Values: []string{"consignor", "consignee", "broker"}},
			"city": {Field: "city", Label: "City"},
		},
		SortField: "name",
		PrintColumns: []Column{
			{Field: "name", Header: "Name"},
			{Field: "type", Header: "Type"},
			{Field: "city", Header: "City"},
			{Field: "gstin", Header: "GSTIN"},
			{Field: "phone", Header: "Phone"},
		},
	},
}

// LookupResource returns the schema registered under name.
func LookupResource(name string) (ResourceSchema, error) {
	s, ok := resources[name]
	if !ok {
		return ResourceSchema{}, ErrUnknownResource
	}
	return s, nil
}

// Resources lists every registered schema ordered by name.
func Resources() []ResourceSchema {
	out := make([]ResourceSchema, 0, len(resources))
	for _, s := range resources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
