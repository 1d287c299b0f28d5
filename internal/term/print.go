// Package term prints leveled, coloured status lines for the command line
// interface.
package term

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu  sync.Mutex
	lvl = LevelInfo

	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	lvl = level
}

// SetOutput redirects status lines. Errors and warnings go to stderr.
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = stdout
	errOut = stderr
}

func write(level Level, color pterm.Color, text string) {
	mu.Lock()
	defer mu.Unlock()

	if level < LevelError && lvl > level {
		return
	}
	w := out
	if level >= LevelWarn {
		w = errOut
	}
	fmt.Fprintln(w, color.Sprint(text))
}

func Debug(a ...interface{}) {
	write(LevelDebug, pterm.FgLightCyan, fmt.Sprint(a...))
}

func Debugf(format string, a ...interface{}) {
	write(LevelDebug, pterm.FgLightCyan, fmt.Sprintf(format, a...))
}

func Info(a ...interface{}) {
	write(LevelInfo, pterm.FgLightGreen, fmt.Sprint(a...))
}

func Infof(format string, a ...interface{}) {
	write(LevelInfo, pterm.FgLightGreen, fmt.Sprintf(format, a...))
}

func Warn(a ...interface{}) {
	write(LevelWarn, pterm.FgYellow, fmt.Sprint(a...))
}

func Warnf(format string, a ...interface{}) {
	write(LevelWarn, pterm.FgYellow, fmt.Sprintf(format, a...))
}

func Error(a ...interface{}) {
	write(LevelError, pterm.FgLightRed, fmt.Sprint(a...))
}

func Errorf(format string, a ...interface{}) {
	write(LevelError, pterm.FgLightRed, fmt.Sprintf(format, a...))
}

// Table renders rows under header to w.
func Table(w io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)

	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
