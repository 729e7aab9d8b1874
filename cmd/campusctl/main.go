package main

import (
	"github.com/John-Michael-Goco/CampusGoWeb/internal/cli"
)

func main() {
	cli.Execute()
}
