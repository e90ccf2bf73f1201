package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat selects how a command renders its result.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Formatter renders a command result to a writer.
type Formatter interface {
	FormatTo(w io.Writer, v any) error
}

// NewFormatter returns the Formatter for format, defaulting to text for an
// unrecognized value.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return JSONFormatter{Indent: true}
	default:
		return TextFormatter{}
	}
}

// TextFormatter renders v with its Stringer/error interface, or with %+v
// when neither is implemented. Command result types are expected to
// implement fmt.Stringer for readable text output.
type TextFormatter struct{}

func (TextFormatter) FormatTo(w io.Writer, v any) error {
	if s, ok := v.(fmt.Stringer); ok {
		_, err := fmt.Fprintln(w, s.String())
		return err
	}
	if err, ok := v.(error); ok {
		_, werr := fmt.Fprintln(w, err.Error())
		return werr
	}
	_, err := fmt.Fprintf(w, "%+v\n", v)
	return err
}

// JSONFormatter renders v as JSON, optionally pretty-printed.
type JSONFormatter struct {
	Indent bool
}

func (f JSONFormatter) FormatTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
