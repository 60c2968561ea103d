// Command voiceguard scores WAV recordings offline.
//
// Usage:
//
//	voiceguard [flags] score <file.wav>...
//	voiceguard [flags] features <file.wav>
//
// The score command prints the label, the classifier confidence, the
// speech continuity and the scorer used for each file. The features
// command prints the feature vector the trained model consumes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
