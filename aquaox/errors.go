package aquaox

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// ErrDataNotFound is matched by errors returned when the saturation data file does not exist.
	ErrDataNotFound = errors.New("saturation data not found")

	// ErrDataFormat is matched by errors returned when the saturation data cannot be decoded
	// or does not describe a usable table.
	ErrDataFormat = errors.New("invalid saturation data")

	// ErrOutOfRange is matched by errors returned for temperature or salinity outside the table domain.
	ErrOutOfRange = errors.New("value out of range")

	// ErrInvalidTestData is matched by errors returned for a re-aeration test with t70 <= t10.
	ErrInvalidTestData = errors.New("invalid re-aeration test data")

	// ErrTableBounds is matched when a lookup lands outside the loaded matrix.
	// It signals a broken table, not bad caller input.
	ErrTableBounds = errors.New("saturation table index out of bounds")
)

// DataNotFoundError reports a missing saturation data file.
type DataNotFoundError struct {
	Path string
	Err  error
}

func (e *DataNotFoundError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("data file not readable at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("data file not found at %s", e.Path)
}

func (e *DataNotFoundError) Unwrap() error { return e.Err }

func (e *DataNotFoundError) Is(target error) bool { return target == ErrDataNotFound }

// DataFormatError reports saturation data that could not be turned into a table.
// Path is empty for in-memory sources.
type DataFormatError struct {
	Path string
	Err  error
}

func (e *DataFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid saturation data: %v", e.Err)
	}
	return fmt.Sprintf("invalid saturation data in %s: %v", e.Path, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

// OutOfRangeError reports lookup arguments outside [Min, Max].
// Arguments lists the names of the offending arguments, in call order.
type OutOfRangeError struct {
	Temperature float64
	Salinity    float64
	Arguments   []string
	Min, Max    float64
}

func (e *OutOfRangeError) Error() string {
	parts := make([]string, 0, len(e.Arguments))
	for _, name := range e.Arguments {
		switch name {
		case "temperature":
			parts = append(parts, fmt.Sprintf("temperature %g", e.Temperature))
		case "salinity":
			parts = append(parts, fmt.Sprintf("salinity %g", e.Salinity))
		}
	}
	return fmt.Sprintf("%s out of range [%g, %g]", strings.Join(parts, " and "), e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// InvalidTestDataError reports a re-aeration test whose t70 does not follow t10.
type InvalidTestDataError struct {
	T10 float64
	T70 float64
}

func (e *InvalidTestDataError) Error() string {
	return fmt.Sprintf("t70 (%g min) must be greater than t10 (%g min)", e.T70, e.T10)
}

func (e *InvalidTestDataError) Is(target error) bool { return target == ErrInvalidTestData }

// TableBoundsError reports a computed cell outside the loaded matrix.
type TableBoundsError struct {
	Temperature float64
	Salinity    float64
	Row, Col    int
	Rows, Cols  int
}

func (e *TableBoundsError) Error() string {
	return fmt.Sprintf("saturation table has %dx%d cells, no cell [%d][%d] for temperature %g salinity %g",
		e.Rows, e.Cols, e.Row, e.Col, e.Temperature, e.Salinity)
}

func (e *TableBoundsError) Is(target error) bool { return target == ErrTableBounds }
