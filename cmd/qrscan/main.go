// Command qrscan locates and decodes QR codes in images, from the command
// line or over HTTP.
package main

import "github.com/qrscan/qrscan/cmd/qrscan/cmd"

func main() {
	cmd.Execute()
}
