package main

import "github.com/ValentinKolb/dUID/cmd"

func main() {
	cmd.Execute()
}
