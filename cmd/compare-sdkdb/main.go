// Command compare-sdkdb reports where a candidate SDKDB diverges from a
// baseline.
//
//	compare-sdkdb <base-file> <sdkdb-file>
//
// Exit status is 0 when the snapshots match, 1 on any mismatch and 2 when a
// snapshot can't be loaded. --exit-zero always exits 0 on a completed
// comparison.
package main

import "os"

func main() {
	os.Exit(Execute())
}
