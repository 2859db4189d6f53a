package main

import "github.com/andresmejia3/maskwatch/cmd"

func main() {
	cmd.Execute()
}
