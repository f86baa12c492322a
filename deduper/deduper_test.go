package deduper_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canleads/places-scraper/deduper"
)

func Test_AddIfNotExists(t *testing.T) {
	d := deduper.New()
	ctx := context.Background()

	require.True(t, d.AddIfNotExists(ctx, "ChIJa"))
	require.False(t, d.AddIfNotExists(ctx, "ChIJa"))
	require.True(t, d.AddIfNotExists(ctx, "ChIJb"))
}

func Test_AddIfNotExists_Concurrent(t *testing.T) {
	d := deduper.New()
	ctx := context.Background()

	const workers = 16

	var admitted atomic.Int32

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for k := 0; k < 100; k++ {
				if d.AddIfNotExists(ctx, fmt.Sprintf("ChIJ%d", k)) {
					admitted.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	require.EqualValues(t, 100, admitted.Load())
}
