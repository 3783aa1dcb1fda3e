package codec

import "errors"

// Sentinel errors for the encode/decode paths. Every failure a caller can
// usefully branch on is one of these, wrapped via fmt.Errorf's %w so
// callers can errors.Is against a kind. Errors about one member of the
// input carry its JSON path (e.g. "features[17].geometry.coordinates[2]");
// errors about the record as a whole (such as an empty features array) and
// wire-level decode errors outside a geometry carry no path.
var (
	ErrInvalidTopLevelType   = errors.New("top-level type is not the expected collection kind")
	ErrEmptyFeatures         = errors.New("features array is empty")
	ErrEmptyGeometries       = errors.New("geometries array is empty")
	ErrMissingGeometry       = errors.New("feature geometry is missing or null")
	ErrUnsupportedGeometry   = errors.New("geometry type is outside the six accepted variants")
	ErrMalformedCoordinates  = errors.New("coordinates have the wrong nesting depth or a non-numeric leaf")
	ErrInvalidCoordinate     = errors.New("coordinate is non-finite or out of range")
	ErrMalformedBbox         = errors.New("bbox has the wrong length or a non-numeric entry")
	ErrInvalidIDType         = errors.New("feature id is neither a string nor a number")
	ErrInvalidScale          = errors.New("scale must be a positive integer")
	ErrUnrepresentableNumber = errors.New("non-finite number inside properties")
	ErrMalformedRecord       = errors.New("decoded record violates an invariant or has an unknown type tag")
	ErrEmptyGeometry         = errors.New("multi-part geometry has no parts")
)
