package errors

// ANSI escape sequences used by Format.
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
)

var colorEnabled = true

// DisableColors turns off ANSI sequences in Format output.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI sequences in Format output back on.
func EnableColors() { colorEnabled = true }

// SetColors sets whether Format output uses ANSI sequences.
func SetColors(on bool) { colorEnabled = on }

func paint(seq, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return seq + text + ansiReset
}

func red(text string) string  { return paint(ansiRed, text) }
func blue(text string) string { return paint(ansiBlue, text) }
func cyan(text string) string { return paint(ansiCyan, text) }
func gray(text string) string { return paint(ansiGray, text) }
func bold(text string) string { return paint(ansiBold, text) }
