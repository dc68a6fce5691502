// Command fttsim runs simulations of FT4FTT networks described in topology
// files.
package main

import "github.com/ft4fttsim/ft4fttsim/fttsim/cmd"

func main() {
	cmd.Execute()
}
