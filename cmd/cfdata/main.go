package main

import "surveyops/cmd/cfdata/cmd"

func main() {
	cmd.Execute()
}
