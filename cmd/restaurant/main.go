package main

import (
	_ "time/tzdata"

	"github.com/Freeeeeet/restaurant_booking/internal/cli"
)

func main() {
	cli.Execute()
}
