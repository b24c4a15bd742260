package runtime

import "fmt"

func errPanicf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
