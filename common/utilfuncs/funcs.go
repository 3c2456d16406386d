package utilfuncs

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// PanicIfError reports err with message and exits the process.
func PanicIfError(err error, message string) {
	if err != nil {
		fmt.Fprintln(os.Stderr, message)
		fmt.Fprintln(os.Stderr, err.Error())
		logrus.WithError(err).Error(message)
		os.Exit(1)
	}
}

// Must returns v and panics if err is not nil.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
