// Package validation checks request payloads. Struct tags are evaluated by
// go-playground/validator; query parameters and other loose values use the
// chainable Checker. Both report INVALID_INPUT errors whose details list
// every failing field by its JSON name.
package validation
