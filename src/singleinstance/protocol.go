package singleinstance

import (
	"fmt"
	"strings"

	"screen-translate/src/capture"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	statusSuccess = "SUCCESS\n"
	statusError   = "ERROR\n"

	fixedSuffix = " fixed"
)

// encodeRequest renders req as one protocol line, e.g. "CAPTURE translate fixed\n".
func encodeRequest(req Request) string {
	line := "CAPTURE " + req.Intent.String()
	if req.Fixed {
		line += fixedSuffix
	}
	return line + "\n"
}

func decodeRequest(line string) (Request, error) {
	rest, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "CAPTURE ")
	if !ok {
		return Request{}, fmt.Errorf("unknown request %q", strings.TrimSpace(line))
	}
	rest, fixed := strings.CutSuffix(rest, fixedSuffix)
	intent, ok := capture.ParseIntent(rest)
	if !ok {
		return Request{}, fmt.Errorf("unknown intent %q", rest)
	}
	return Request{Intent: intent, Fixed: fixed}, nil
}
