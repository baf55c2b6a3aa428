package duplicate

import "omibyte.io/cmrt/rt"

//rt:entry
func first() {
	rt.Halt()
}

//rt:entry
func second() {
	select {}
}
