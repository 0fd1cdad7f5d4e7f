// Package textutil provides text processing utilities for filename
// derivation and display label generation.
package textutil
