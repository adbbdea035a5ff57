package main

import (
	"github.com/airenas/bpoc/internal/app/dispatcher"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	dispatcher.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
    __                       
   / /_  ____  ____  _____
  / __ \/ __ \/ __ \/ ___/
 / /_/ / /_/ / /_/ / /__  
/_.___/ .___/\____/\___/  
     /_/   dispatcher  v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/airenas/bpoc"))
}
