package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetupSignalHandlerNotCancelledWithoutSignal(t *testing.T) {
	ctx := SetupSignalHandler()
	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before any signal was delivered")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Nil(t, ctx.Err())
}

func TestWaitForShutdownReturnsContextErr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, WaitForShutdown(ctx), context.Canceled)
}
