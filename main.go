package main

import "github.com/danmuhq/danmuz/cmd"

func main() {
	cmd.Execute()
}
