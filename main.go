package main

import "github.com/frahmantamala/campaign-portal/cmd"

func main() {
	cmd.Execute()
}
