package livebind

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
)

// Error message constants
const (
	// Parse errors
	ErrMsgParseFailed        = "template parsing failed"
	ErrMsgAttributeName      = "cannot infer attribute name for binding"
	ErrMsgMarkerInName       = "bindings are not allowed in attribute names"
	ErrMsgMarkerCount        = "template bindings do not match the literal"
	ErrMsgEmptyLiteral       = "template literal needs at least one string"
	ErrMsgUnknownPartKind    = "unknown template part kind"
	ErrMsgValueCount         = "value count does not match template bindings"
	ErrMsgDirectiveDepth     = "directive resolution did not settle"
	ErrMsgRepeatTarget       = "repeat must be bound to a node part"
	ErrMsgPartFactoryNilPart = "part factory returned no part"
)

// Error code constants for categorization
const (
	ErrCodeParse     = "LIVEBIND_PARSE"
	ErrCodeConstruct = "LIVEBIND_CONSTRUCT"
)

// Metadata keys attached to errors
const (
	MetaKeyAttribute   = "attribute"
	MetaKeyMarkerIndex = "marker_index"
	MetaKeyKind        = "kind"
	MetaKeyExpected    = "expected"
	MetaKeyGot         = "got"
	MetaKeyPartType    = "part_type"
)

// Sentinel errors, matchable with errors.Is. Constructors wrap them with a
// message naming the offending input, so the sentinel text appears once.
var (
	ErrAttributeName   = errors.New(ErrMsgAttributeName)
	ErrMarkerInName    = errors.New(ErrMsgMarkerInName)
	ErrMarkerCount     = errors.New(ErrMsgMarkerCount)
	ErrEmptyLiteral    = errors.New(ErrMsgEmptyLiteral)
	ErrUnknownPartKind = errors.New(ErrMsgUnknownPartKind)
	ErrValueCount      = errors.New(ErrMsgValueCount)
	ErrDirectiveDepth  = errors.New(ErrMsgDirectiveDepth)
	ErrRepeatTarget    = errors.New(ErrMsgRepeatTarget)
	ErrNilPart         = errors.New(ErrMsgPartFactoryNilPart)
)

// NewParseError wraps a failure of the HTML parser itself.
func NewParseError(cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeParse, ErrMsgParseFailed)
}

func newAttributeNameError(name string, markerIndex int) error {
	return cuserr.WrapStdError(ErrAttributeName, ErrCodeParse,
		fmt.Sprintf("binding %d in attribute %q", markerIndex, name)).
		WithMetadata(MetaKeyAttribute, name).
		WithMetadata(MetaKeyMarkerIndex, strconv.Itoa(markerIndex))
}

func newMarkerInNameError(name string) error {
	return cuserr.WrapStdError(ErrMarkerInName, ErrCodeParse, fmt.Sprintf("attribute %q", name)).
		WithMetadata(MetaKeyAttribute, name)
}

func newMarkerCountError(expected, got int) error {
	return cuserr.WrapStdError(ErrMarkerCount, ErrCodeParse,
		fmt.Sprintf("expected %d bindings, found %d", expected, got)).
		WithMetadata(MetaKeyExpected, strconv.Itoa(expected)).
		WithMetadata(MetaKeyGot, strconv.Itoa(got))
}

func newEmptyLiteralError() error {
	return cuserr.WrapStdError(ErrEmptyLiteral, ErrCodeParse, "no strings given")
}

func newUnknownPartKindError(kind PartKind) error {
	return cuserr.WrapStdError(ErrUnknownPartKind, ErrCodeConstruct, fmt.Sprintf("kind %q", kind)).
		WithMetadata(MetaKeyKind, string(kind))
}

func newValueCountError(expected, got int) error {
	return cuserr.WrapStdError(ErrValueCount, ErrCodeConstruct,
		fmt.Sprintf("expected %d values, got %d", expected, got)).
		WithMetadata(MetaKeyExpected, strconv.Itoa(expected)).
		WithMetadata(MetaKeyGot, strconv.Itoa(got))
}

func newDirectiveDepthError() error {
	return cuserr.WrapStdError(ErrDirectiveDepth, ErrCodeConstruct,
		fmt.Sprintf("more than %d nested directives", maxDirectiveDepth)).
		WithMetadata(MetaKeyExpected, strconv.Itoa(maxDirectiveDepth))
}

func newRepeatTargetError(part Part) error {
	return cuserr.WrapStdError(ErrRepeatTarget, ErrCodeConstruct, "bound to "+partTypeName(part)).
		WithMetadata(MetaKeyPartType, partTypeName(part))
}

func newNilPartError(kind PartKind) error {
	return cuserr.WrapStdError(ErrNilPart, ErrCodeConstruct, fmt.Sprintf("kind %q", kind)).
		WithMetadata(MetaKeyKind, string(kind))
}
