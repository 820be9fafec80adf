package main

import "github.com/jsphweid/midiscan/cmd"

func main() {
	cmd.Execute()
}
