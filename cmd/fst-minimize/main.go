// Command fst-minimize reads a stream of transducers, minimizes each one and writes the
// minimized transducers to standard output in the same stream format.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
