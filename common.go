package wdkit

import "log"

var debugFlag = false

// SetDebug turns debug logging of session acquisition on or off.
func SetDebug(debug bool) {
	debugFlag = debug
}

func debugLog(format string, args ...interface{}) {
	if !debugFlag {
		return
	}
	log.Printf("wdkit: "+format+"\n", args...)
}
