package main

import (
	"log"
	"os"

	"github.com/sealor/chatcli/pkg/cli"
)

func main() {
	if err := cli.NewApp().Execute(os.Args[1:]); err != nil {
		log.Fatalln("ERROR:", err)
	}
}
