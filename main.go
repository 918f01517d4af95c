package main

import "github.com/varalys/clinprep/cmd/clinprep"

func main() { clinprep.Execute() }
