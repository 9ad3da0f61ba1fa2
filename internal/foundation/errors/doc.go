// Package errors provides foundational, type-safe error primitives used across sitebuilder.
//
// Every failure the document pipeline can report is a ClassifiedError whose
// category names the failure kind (malformed attributes, missing attribute,
// missing body, parse, filesystem, render, transform) and whose context carries
// the offending path, reference, tag or attribute so the error can be shown to
// the user without a secondary lookup.
//
// Example usage:
//
//	err := errors.TransformError("unknown variable $title").
//		WithContext(errors.ContextReference, "$title").
//		Build()
//
// Underlying library and I/O errors are wrapped, never re-encoded:
//
//	err := errors.RenderError(cause, "katex render failed").
//		WithContext(errors.ContextTag, "katex").
//		Build()
package errors
