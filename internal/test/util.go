package test

import (
	"testing"

	"github.com/minibundle/minibundle/internal/logger"
)

func AssertEqualWithDiff(t *testing.T, observed string, expected string) {
	t.Helper()
	if observed != expected {
		t.Fatal("\n" + Diff(expected, observed, false))
	}
}

func SourceForTest(contents string) logger.Source {
	return logger.Source{
		Index:          0,
		KeyPath:        "/entry.js",
		PrettyPath:     "entry.js",
		Contents:       contents,
		IdentifierName: "entry",
	}
}
