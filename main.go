package main

import (
	"context"
	"os"

	"github.com/mark3labs/tokencount/cmd"
)

var version = "dev"

func main() {
	os.Exit(cmd.Execute(context.Background(), version))
}
