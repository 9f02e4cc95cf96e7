package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"buildlog/internal/event"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] in out",
	Short: "Convert an event log between NDJSON and msgpack",
	Long:  `Convert re-encodes an event log; formats are picked from the file extensions (.mp/.msgpack is msgpack, anything else NDJSON)`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	n, err := convertFile(in, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "converted %d events: %s (%s) -> %s (%s)\n",
		n, in, event.DetectFormat(in), out, event.DetectFormat(out))
	return nil
}

func convertFile(in, out string) (int, error) {
	src, err := os.Open(in)
	if err != nil {
		return 0, fmt.Errorf("failed to open input: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("failed to create output: %w", err)
	}
	n, err := convert(src, event.DetectFormat(in), dst, event.DetectFormat(out))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

// convert streams events from r to w, one record at a time.
func convert(r io.Reader, from event.Format, w io.Writer, to event.Format) (int, error) {
	dec := event.NewDecoder(r, from)
	enc := event.NewEncoder(w, to)
	n := 0
	for {
		ev, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("event %d: %w", n+1, err)
		}
		if err := enc.Encode(ev); err != nil {
			return n, fmt.Errorf("event %d: %w", n+1, err)
		}
		n++
	}
}
