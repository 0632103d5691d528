package tree

import (
	"log/slog"

	"github.com/ardnew/ppx/source"
)

// StructureError reports a candidate range that partially overlaps a range
// already in the tree.
type StructureError struct {
	Document     string
	Offered      source.Reference
	Existing     source.Reference
	OfferedKind  Kind
	ExistingKind Kind
}

// Error implements the error interface.
func (e *StructureError) Error() string {
	return ErrOverlap.Error() + ": " +
		e.OfferedKind.String() + e.Offered.String() + " straddles " +
		e.ExistingKind.String() + e.Existing.String() + " in " + e.Document
}

// Unwrap returns [ErrOverlap].
func (e *StructureError) Unwrap() error { return ErrOverlap }

// LogValue implements slog.LogValuer.
func (e *StructureError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrOverlap.Error()),
		slog.String("document", e.Document),
		slog.String("offered", e.OfferedKind.String()+e.Offered.String()),
		slog.String("existing", e.ExistingKind.String()+e.Existing.String()),
	)
}
