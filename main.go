package main

import "github.com/swyde/swyde-backend/cmd"

func main() {
	cmd.Execute()
}
