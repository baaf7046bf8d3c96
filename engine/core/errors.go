package core

import (
	"errors"
)

var (
	// Batch protocol misuse.
	ErrAlreadyDrawing = errors.New("renderer is already drawing")
	ErrNotDrawing     = errors.New("renderer isn't drawing")

	// Renderer lifecycle.
	ErrNotInitialized     = errors.New("renderer is not initialized")
	ErrAlreadyInitialized = errors.New("renderer is already initialized")

	// A single quad does not fit in the staging buffer. Configuration error.
	ErrCapacityExceeded = errors.New("staging buffer capacity exceeded")

	ErrShaderCompile          = errors.New("shader compilation failed")
	ErrShaderLink             = errors.New("shader program link failed")
	ErrVertexArrayUnsupported = errors.New("vertex array objects are not supported")

	ErrUnknown = errors.New("unknown")
)
