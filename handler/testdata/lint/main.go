package main

import "omibyte.io/cmrt/rt"

var counter int

var table = []int{1, 2, 3}

//rt:pre_init
//rt:unsafe
func preInit() {
	counter = 1
	configure()
}

func configure() {
	_ = table[0]
}

//rt:entry
func main() {
	rt.Halt()
}
