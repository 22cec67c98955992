// Package cmds holds the command implementations behind the CLI layer and
// the helpers they share.
package cmds

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Command is the common behavior of every executable command: validate the
// inputs first, run with an output writer after that.
type Command interface {
	Validate() error
	Exec(w io.Writer) error
}

// ValidateTime checks a daily clock time given as HH:MM or HH:MM:SS.
func ValidateTime(t string) error {
	if _, err := time.Parse("15:04", t); err == nil {
		return nil
	}
	if _, err := time.Parse("15:04:05", t); err == nil {
		return nil
	}
	return fmt.Errorf("%s is not valid time in HH:MM[:SS]", t)
}

// ParseLoggingArgs feeds glog startup arguments to the flag package which
// glog registers itself to. The real command line stays untouched.
func ParseLoggingArgs(s string) {
	args := make([]string, 1, 12)
	args[0] = os.Args[0]
	args = append(args, strings.Split(s, " ")...)
	orgArgs := os.Args
	os.Args = args
	flag.Parse()
	os.Args = orgArgs
}

func Fprintln(w io.Writer, a ...interface{}) {
	_, _ = fmt.Fprintln(w, a...)
}

func Fprintf(w io.Writer, format string, a ...interface{}) {
	_, _ = fmt.Fprintf(w, format, a...)
}
