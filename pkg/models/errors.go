package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaUnresolved means a required role could not be inferred and needs an explicit column choice.
	ErrSchemaUnresolved = errors.New("schema unresolved")
	// ErrInvalidOverride means a caller-provided column choice does not exist in the header.
	ErrInvalidOverride = errors.New("invalid column override")
	// ErrDataFormat means every row failed coercion for a required field.
	ErrDataFormat = errors.New("data format error")
	// ErrEmptyAfterCleaning means no row survived cleaning.
	ErrEmptyAfterCleaning = errors.New("no rows left after cleaning")
	// ErrForecastUnavailable is non-fatal: too little history or the model could not be fitted.
	ErrForecastUnavailable = errors.New("forecast unavailable")
	// ErrSignalProvider is non-fatal and isolated to one product and one signal.
	ErrSignalProvider = errors.New("signal provider failure")
	// ErrProviderNotConfigured is returned by providers that have no endpoint.
	ErrProviderNotConfigured = errors.New("signal provider not configured")
	// ErrUnsupportedFile is returned for uploads that cannot be read as a table.
	ErrUnsupportedFile = errors.New("unsupported file")
)

// SchemaUnresolvedError carries the partial role map so the caller can ask the operator to choose.
type SchemaUnresolvedError struct {
	Roles   []Role
	Columns ColumnRoleMap
}

func (e *SchemaUnresolvedError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("%s: no column found for %s (header: %s)",
		ErrSchemaUnresolved, strings.Join(names, ", "), strings.Join(e.Columns.Header, ", "))
}

func (e *SchemaUnresolvedError) Unwrap() error {
	return ErrSchemaUnresolved
}
