package main

import (
	"github.com/syedmoizurrehman/DistributedKVStore/cmd"
)

func main() {
	cmd.Execute()
}
