package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ n int }
type pong struct{}

func TestPublishDispatchesByType(t *testing.T) {
	b := New()
	Use(b)
	t.Cleanup(func() { Use(nil) })

	var got []int
	unsubA := Subscribe(func(_ context.Context, e ping) { got = append(got, e.n) })
	unsubB := Subscribe(func(_ context.Context, e ping) { got = append(got, e.n*10) })
	pongs := 0
	Subscribe(func(context.Context, pong) { pongs++ })

	Publish(context.Background(), ping{n: 1})
	require.Equal(t, []int{1, 10}, got)

	// removing the first handler must leave the second one in place
	unsubA()
	Publish(context.Background(), ping{n: 2})
	require.Equal(t, []int{1, 10, 20}, got)

	unsubB()
	Publish(context.Background(), ping{n: 3})
	require.Equal(t, []int{1, 10, 20}, got)
	require.Equal(t, 0, pongs)
}

func TestPublishWithoutBus(t *testing.T) {
	Use(nil)
	unsub := Subscribe(func(context.Context, ping) { t.Fatal("unexpected delivery") })
	unsub()
	Publish(context.Background(), ping{})
}
