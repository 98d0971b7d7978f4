package main

import "github.com/jsphweid/sightread/cmd"

func main() {
	cmd.Execute()
}
