package main

import "github.com/workflow-master/core/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
