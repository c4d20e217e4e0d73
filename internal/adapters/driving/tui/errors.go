package tui

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("tui: search service is required")

// ErrMissingCropService is returned when the crop service is not provided.
var ErrMissingCropService = errors.New("tui: crop service is required")

// ErrMissingTransformEngine is returned when the transform engine is not provided.
var ErrMissingTransformEngine = errors.New("tui: transform engine is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
