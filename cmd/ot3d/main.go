package main

import "github.com/OpenTraceLab/OpenTrace3D/cmd/ot3d/cmd"

func main() {
	cmd.Execute()
}
