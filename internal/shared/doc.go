// Package shared groups helpers used across packages that belong to no
// single layer. The testutil subpackage captures slog output so tests can
// assert on the structured log lines a component emits.
package shared
