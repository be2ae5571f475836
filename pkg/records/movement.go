package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pigeonworks-llc/finance-tables/pkg/table"
)

// Movement columns.
const (
	ColMovID         = "mov_id"
	ColDate          = "fecha"
	ColMonth         = "mes"
	ColYear          = "anio"
	ColAccountID     = "cuenta_id"
	ColCounterpartID = "contraparte_id"
	ColCategoryID    = "categoria_id"
	ColInstrumentID  = "instrumento_id"
	ColDescription   = "descripcion"
	ColAmount        = "monto"
	ColCurrency      = "moneda"
	ColExchangeRate  = "tasa_cambio"
)

// MovementColumns is the column layout of the movements table.
var MovementColumns = []string{
	ColMovID, ColDate, ColMonth, ColYear,
	ColAccountID, ColCounterpartID, ColCategoryID, ColInstrumentID,
	ColDescription, ColAmount, ColCurrency, ColExchangeRate,
}

// RequiredMovementFields must be present and non-null when creating a movement.
var RequiredMovementFields = []string{ColDate, ColDescription, ColAmount, ColCurrency}

// optionalMovementFields default to the empty string.
var optionalMovementFields = []string{ColAccountID, ColCounterpartID, ColCategoryID, ColInstrumentID, ColExchangeRate}

const dateLayout = "2006-01-02"

// CalendarFields parses a YYYY-MM-DD date and returns its month and year.
func CalendarFields(date string) (month, year int, err error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0, 0, &ValidationError{Field: ColDate, Err: fmt.Errorf("%w: %q", ErrMalformedDate, date)}
	}
	return int(t.Month()), t.Year(), nil
}

// NextMovementID returns the next movement identifier for the day of now,
// in the form YYYYMMDD-NNN. The sequence is one more than the highest
// sequence already used that day, or 1. Identifiers that do not have the
// prefix-number shape are ignored.
//
// Two callers working from the same table get the same identifier.
func NextMovementID(t *table.Table, now time.Time) string {
	prefix := now.Format("20060102")

	maxSeq := 0
	if t.HasColumn(ColMovID) {
		for _, row := range t.Rows {
			id := row[ColMovID].Text()
			if !strings.HasPrefix(id, prefix) {
				continue
			}
			_, suffix, ok := strings.Cut(id, "-")
			if !ok {
				continue
			}
			seq, err := strconv.Atoi(suffix)
			if err != nil {
				continue
			}
			maxSeq = max(maxSeq, seq)
		}
	}

	return fmt.Sprintf("%s-%03d", prefix, maxSeq+1)
}

// CreateMovement validates fields, assigns a new identifier and derives
// the calendar fields, then appends the movement. Validation happens
// before the table is touched. An empty table takes the movement layout.
func CreateMovement(t *table.Table, fields Fields, now time.Time) (string, error) {
	for _, f := range RequiredMovementFields {
		if v, ok := fields[f]; !ok || v.IsNull() {
			return "", &ValidationError{Field: f, Err: ErrMissingField}
		}
	}

	amount, err := numeric(fields[ColAmount])
	if err != nil {
		return "", &ValidationError{Field: ColAmount, Err: err}
	}

	month, year, err := CalendarFields(fields[ColDate].Text())
	if err != nil {
		return "", err
	}

	id := NextMovementID(t, now)

	row := Fields{
		ColMovID:       table.String(id),
		ColDate:        table.String(fields[ColDate].Text()),
		ColMonth:       table.Number(float64(month)),
		ColYear:        table.Number(float64(year)),
		ColDescription: fields[ColDescription],
		ColAmount:      amount,
		ColCurrency:    fields[ColCurrency],
	}
	for _, f := range optionalMovementFields {
		if v, ok := fields[f]; ok && !v.IsNull() {
			row[f] = v
		} else {
			row[f] = table.String("")
		}
	}

	if len(t.Columns) == 0 {
		t.Columns = append(t.Columns, MovementColumns...)
	}
	Create(t, row)

	return id, nil
}

// UpdateMovement applies updates to the movements whose mov_id is id.
// When the date changes, month and year are rewritten in the same rows;
// they are never taken from updates directly. The identifier itself is
// never updated.
func UpdateMovement(t *table.Table, id string, updates Fields) error {
	if len(t.Match(ColMovID, id)) == 0 {
		return ErrNotFound
	}
	updates = updates.clone()
	delete(updates, ColMonth)
	delete(updates, ColYear)
	if v, ok := updates[ColDate]; ok && t.HasColumn(ColDate) {
		month, year, err := CalendarFields(v.Text())
		if err != nil {
			return err
		}
		if t.HasColumn(ColMonth) {
			updates[ColMonth] = table.Number(float64(month))
		}
		if t.HasColumn(ColYear) {
			updates[ColYear] = table.Number(float64(year))
		}
	}
	return Update(t, ColMovID, id, updates)
}

// numeric converts v to a number, accepting numeric text.
func numeric(v table.Value) (table.Value, error) {
	if _, ok := v.Float(); ok {
		return v, nil
	}
	n, ok := table.ParseNumber(strings.TrimSpace(v.Text()))
	if !ok {
		return table.Value{}, fmt.Errorf("%w: %q", ErrNotNumeric, v.Text())
	}
	return n, nil
}
