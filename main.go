package main

import "github.com/weaverhq/changelog-weaver/cmd"

func main() {
	cmd.Execute()
}
