package diag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/ecsgen/generr"
	"martianoff/ecsgen/internal/source"
)

var loc = source.Location{File: "combat/turret.go", Line: 12, Column: 6}

func TestGuard(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() error
		wantDiag bool
		wantErr  error
		contains string
	}{
		{
			name: "success",
			fn:   func() error { return nil },
		},
		{
			name:     "emission failure",
			fn:       func() error { return generr.NewEmissionError("Turret", "boom") },
			wantDiag: true,
			contains: "Error message: '[EmissionError] Turret: boom'",
		},
		{
			name:     "panic",
			fn:       func() error { panic("unexpected member") },
			wantDiag: true,
			contains: "panic: unexpected member",
		},
		{
			name:    "cancellation propagates",
			fn:      func() error { return fmt.Errorf("walking: %w", context.Canceled) },
			wantErr: context.Canceled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Guard(context.Background(), CapabilityFailed, loc, tt.fn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			if !tt.wantDiag {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, "ECSGEN11", d.Descriptor.Code)
			assert.Equal(t, loc, d.Location)
			assert.Contains(t, d.Message, tt.contains)
		})
	}
}

func TestGuardCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	d, err := Guard(ctx, BehaviorFailed, loc, func() error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDiagnosticString(t *testing.T) {
	d := New(CollectionComponentFailed, loc, errors.New("bad"))
	assert.Equal(t, "combat/turret.go:12:6: error ECSGEN01: This error indicates a bug in the ecsgen generators. We'd appreciate a bug report. Thanks! Error message: 'bad'.", d.String())
}

func TestCollectorSorts(t *testing.T) {
	var c Collector
	c.Report(New(BehaviorFailed, source.Location{File: "b.go", Line: 1}, errors.New("x")))
	c.Report(New(CapabilityFailed, source.Location{File: "a.go", Line: 9}, errors.New("y")))
	c.Report(New(CapabilityFailed, source.Location{File: "a.go", Line: 2}, errors.New("z")))

	got := c.Diagnostics()
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Location.Line)
	assert.Equal(t, "b.go", got[2].Location.File)
}

func TestWriterReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &WriterReporter{W: &buf}
	r.Report(New(AuthoringFailed, loc, errors.New("x")))
	assert.Contains(t, buf.String(), "ECSGEN13")
}
