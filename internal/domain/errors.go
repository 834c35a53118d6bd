package domain

import "errors"

var (
	// ErrMarkerNotFound means the record contains neither session marker.
	ErrMarkerNotFound = errors.New("session marker not found")

	// ErrInsufficientFields means fewer value tokens than the field order requires.
	ErrInsufficientFields = errors.New("insufficient value fields")

	// ErrUnknownStation is returned for any station id outside the registry.
	ErrUnknownStation = errors.New("unknown station")

	// ErrUnknownParameter is returned when a threshold names a parameter outside the canonical set.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrTimestampUnparseable means a filename does not follow the DD_MM_YYYY_HH_MM convention.
	ErrTimestampUnparseable = errors.New("timestamp unparseable")

	// ErrFetchNotFound means the file source has no file for the station.
	ErrFetchNotFound = errors.New("no file available")

	// ErrConfigIO wraps threshold configuration read and write failures.
	ErrConfigIO = errors.New("threshold config i/o")
)
