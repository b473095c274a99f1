package main

import (
	"os"

	"github.com/sudharshan41/apartmentrentalportal/internal/app"
)

func main() {
	os.Exit(app.Main(app.Portal, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
