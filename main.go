package main

import (
	"log"

	"github.com/srujanlakku/ai-interview-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
