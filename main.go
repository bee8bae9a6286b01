package main

import "github.com/cockroachdb/tablecmp/cmd"

func main() {
	cmd.Execute()
}
