package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"buildlog/internal/trace"
)

// setupStructured opens the structured block stream named by the settings
// and the crash ring, and attaches both to the command context. The returned
// cleanup closes the stream and must be called exactly once.
func setupStructured(cmd *cobra.Command, s settings) (func() error, error) {
	ringSize, err := cmd.Flags().GetInt("ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get ring-size flag: %w", err)
	}

	stream, _, err := trace.New(trace.Config{
		Format:     s.structuredFormat,
		OutputPath: s.structuredPath,
		RingSize:   -1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create structured stream: %w", err)
	}

	var ring *trace.Ring
	if ringSize > 0 {
		ring = trace.NewRing(ringSize)
	}

	ctx := trace.WithTracer(cmd.Context(), stream)
	if ring != nil {
		ctx = trace.WithRing(ctx, ring)
	}
	cmd.SetContext(ctx)

	cleanup := func() error {
		if err := stream.Close(); err != nil {
			return fmt.Errorf("failed to close structured stream: %w", err)
		}
		return nil
	}
	return cleanup, nil
}
