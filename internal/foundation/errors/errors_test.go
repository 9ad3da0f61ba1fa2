package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryTransform, "unknown variable $title").
			WithSeverity(SeverityFatal).
			WithContext(ContextReference, "$title").
			Build()

		if err.Category() != CategoryTransform {
			t.Errorf("expected category %s, got %s", CategoryTransform, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "unknown variable $title" {
			t.Errorf("expected message 'unknown variable $title', got %s", err.Message())
		}

		ref, exists := err.Context().GetString(ContextReference)
		if !exists || ref != "$title" {
			t.Errorf("expected context reference=$title, got %v", ref)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := MissingBodyError("katex: malformed body").Build()
		wrapped := fmt.Errorf("process index.html: %w", inner)

		if !HasCategory(wrapped, CategoryMissingBody) {
			t.Error("expected wrapped error to keep its category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to report internal category")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("katex: exit status 1")
		err := RenderError(originalErr, "math render failed").
			Warning().
			WithContext(ContextTag, "katex").
			WithContext("display", true).
			Build()

		if err.Category() != CategoryRender {
			t.Errorf("expected category %s, got %s", CategoryRender, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}

		tag, _ := err.Context().GetString(ContextTag)
		if tag != "katex" {
			t.Errorf("expected tag context 'katex', got %s", tag)
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		cause := errors.New("cause")
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"MalformedAttrsError", MalformedAttrsError("test"), CategoryMalformedAttrs, SeverityError, RetryUserAction},
			{"MissingAttrError", MissingAttrError("test"), CategoryMissingAttr, SeverityError, RetryUserAction},
			{"MissingBodyError", MissingBodyError("test"), CategoryMissingBody, SeverityError, RetryUserAction},
			{"ParseError", ParseError(cause, "test"), CategoryParse, SeverityError, RetryUserAction},
			{"RenderError", RenderError(cause, "test"), CategoryRender, SeverityError, RetryNever},
			{"TransformError", TransformError("test"), CategoryTransform, SeverityError, RetryUserAction},
			{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityError, RetryNever},
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryNever},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryNever},
			{"GitError", GitError("test"), CategoryGit, SeverityError, RetryBackoff},
			{"NetworkError", NetworkError("test"), CategoryNetwork, SeverityError, RetryBackoff},
			{"StorageError", StorageError("test"), CategoryStorage, SeverityError, RetryNever},
			{"BuildError", BuildError("test"), CategoryBuild, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestAnnotate(t *testing.T) {
	base := TransformError("unknown identifier: @missing").Build()

	annotated := Annotate(base, ContextTag, "a")
	classified, ok := AsClassified(annotated)
	if !ok {
		t.Fatal("expected classified error")
	}
	if tag, _ := classified.Context().GetString(ContextTag); tag != "a" {
		t.Errorf("expected tag=a, got %q", tag)
	}

	again := Annotate(annotated, ContextTag, "div")
	classified, _ = AsClassified(again)
	if tag, _ := classified.Context().GetString(ContextTag); tag != "a" {
		t.Errorf("expected existing context to win, got %q", tag)
	}

	plain := errors.New("plain")
	if Annotate(plain, ContextTag, "a") != plain {
		t.Error("expected unclassified error to pass through")
	}
}

func TestErrorContext(t *testing.T) {
	t.Run("Context operations", func(t *testing.T) {
		ctx := make(ErrorContext)
		ctx = ctx.Set("key1", "value1")
		ctx = ctx.Set("key2", 42)

		value1, exists1 := ctx.GetString("key1")
		if !exists1 || value1 != "value1" {
			t.Errorf("expected key1=value1, got %v", value1)
		}

		value2, exists2 := ctx.Get("key2")
		if !exists2 || value2 != 42 {
			t.Errorf("expected key2=42, got %v", value2)
		}

		_, exists3 := ctx.Get("nonexistent")
		if exists3 {
			t.Error("expected nonexistent key to not exist")
		}
	})

	t.Run("Context merge", func(t *testing.T) {
		ctx1 := make(ErrorContext)
		ctx1 = ctx1.Set("key1", "value1")
		ctx1 = ctx1.Set("shared", "original")

		ctx2 := make(ErrorContext)
		ctx2 = ctx2.Set("key2", "value2")
		ctx2 = ctx2.Set("shared", "overridden")

		merged := ctx1.Merge(ctx2)

		value1, _ := merged.GetString("key1")
		value2, _ := merged.GetString("key2")
		shared, _ := merged.GetString("shared")

		if value1 != "value1" {
			t.Errorf("expected key1=value1, got %s", value1)
		}
		if value2 != "value2" {
			t.Errorf("expected key2=value2, got %s", value2)
		}
		if shared != "overridden" {
			t.Errorf("expected shared=overridden, got %s", shared)
		}
	})
}
