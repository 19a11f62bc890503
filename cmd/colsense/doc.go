// Package colsense provides the command-line interface for colsense. It
// wires configuration, logging and the classifier into subcommands
// (classify, inspect, generate, serve, etc.) and executes the selected one.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/colsense/colsense/cmd/colsense"
//	func main() { colsense.Execute() }
package colsense
