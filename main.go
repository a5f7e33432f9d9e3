package main

import "github.com/ValentinKolb/mocker/cmd"

func main() {
	cmd.Execute()
}
