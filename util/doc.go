// Package util holds small parsing and display helpers shared by the
// config and HTTP layers.
package util
