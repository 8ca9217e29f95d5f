package resilience

import (
	"context"
	"testing"
	"time"
)

func TestDefaultTimeoutConfig(t *testing.T) {
	tc := DefaultTimeoutConfig()

	if tc.Delivery >= tc.HTTPHandler {
		t.Errorf("delivery timeout %v must be below handler timeout %v", tc.Delivery, tc.HTTPHandler)
	}
	if tc.HTTPHandler >= tc.Sweep {
		t.Errorf("handler timeout %v must be below sweep timeout %v", tc.HTTPHandler, tc.Sweep)
	}
}

func TestContextCreators(t *testing.T) {
	tc := DefaultTimeoutConfig()

	creators := map[string]func(context.Context) (context.Context, context.CancelFunc){
		"handler":  tc.HandlerContext,
		"sweep":    tc.SweepContext,
		"delivery": tc.DeliveryContext,
	}

	for name, create := range creators {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := create(context.Background())
			defer cancel()

			deadline, ok := ctx.Deadline()
			if !ok {
				t.Fatal("expected deadline")
			}
			if time.Until(deadline) <= 0 {
				t.Error("deadline already passed")
			}
		})
	}
}

func TestContextCancellationPropagation(t *testing.T) {
	tc := DefaultTimeoutConfig()
	parent, cancel := context.WithCancel(context.Background())

	ctx, cancelChild := tc.DeliveryContext(parent)
	defer cancelChild()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("child context not cancelled with parent")
	}
}
