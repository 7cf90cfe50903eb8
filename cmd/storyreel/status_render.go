package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusPending statusKind = iota
	statusDone
	statusPartial
	statusOff
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiGray   = "\x1b[90m"
)

const (
	stageLabelWidth = 12
	stageIndent     = "  "
)

func renderStageLine(label string, kind statusKind, detail string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", stageKindLabel(kind))
	if detail != "" {
		statusText = fmt.Sprintf("%s %s", statusText, detail)
	}
	base := fmt.Sprintf("%s%-*s %s", stageIndent, stageLabelWidth, label+":", statusText)
	if colorize {
		if color := stageKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func stageKindLabel(kind statusKind) string {
	switch kind {
	case statusDone:
		return "DONE"
	case statusPartial:
		return "PARTIAL"
	case statusOff:
		return "OFF"
	default:
		return "PENDING"
	}
}

func stageKindColor(kind statusKind) string {
	switch kind {
	case statusDone:
		return ansiGreen
	case statusPartial:
		return ansiYellow
	case statusOff:
		return ansiGray
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
