package server

import "fmt"

// ANSI colours for the development console log
const (
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	blue    = "\033[34m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	gray    = "\033[90m"
	reset   = "\033[0m"
)

var methodColours = map[string]string{
	"GET":     green,
	"POST":    blue,
	"PUT":     cyan,
	"DELETE":  yellow,
	"PATCH":   magenta,
	"OPTIONS": gray,
}

// paintMethod renders an HTTP method padded to a fixed width
func paintMethod(method string) string {
	colour, ok := methodColours[method]
	if !ok {
		colour = gray
	}
	return fmt.Sprintf("%s %-7s%s", colour, method, reset)
}

// paintStatus renders a response status: red for 5xx, yellow for 4xx
func paintStatus(status int) string {
	colour := green
	switch {
	case status >= 500:
		colour = red
	case status >= 400:
		colour = yellow
	}
	return fmt.Sprintf("%s%d%s", colour, status, reset)
}
