package main

import "github.com/colsense/colsense/cmd/colsense"

func main() { colsense.Execute() }
