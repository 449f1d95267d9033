// Package viz styles the terminal reports printed by the mcspace CLI.
package viz
