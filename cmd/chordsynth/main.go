// Command chordsynth renders chord symbols to WAV, serves the HTTP API and
// inspects rendered files.
package main

func main() {
	Execute()
}
