// Package kibi formats byte counts with binary units
package kibi

import "fmt"

var units = []string{"KB", "MB", "GB", "TB", "PB"}

// Bytes formats b using the largest unit that keeps the value at 1 or more, rounded down
func Bytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%v bytes", b)
	}
	v := b / 1024
	u := 0
	for v >= 1024 && u < len(units)-1 {
		v /= 1024
		u++
	}
	return fmt.Sprintf("%v %v", v, units[u])
}
