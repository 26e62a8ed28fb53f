package main

import (
	"fmt"
	"os"

	"sage/internal/ipc"
)

func main() {
	cmd := "stop"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := ipc.SendCommand(cmd); err != nil {
		fmt.Println("sage daemon not running:", err)
		os.Exit(1)
	}
}
