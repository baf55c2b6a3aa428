package main

import "omibyte.io/cmrt/rt"

//rt:entry
func main() {
	rt.Halt()
}
