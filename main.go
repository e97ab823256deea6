package main

import (
	"github.com/10spoon/ppomppurelaymonitor/cmd"
)

func main() {
	cmd.Execute()
}
