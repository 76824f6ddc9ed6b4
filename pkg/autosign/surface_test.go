package autosign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SeakMengs/AutoSign/pkg/autosign/autosigntest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceSupersedesInFlightTask(t *testing.T) {
	s := NewSurface()
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := RunSurface(context.Background(), s, func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})
		done <- err
	}()

	<-started
	got, err := RunSurface(context.Background(), s, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	select {
	case err := <-done:
		assert.True(t, IsSuperseded(err))
	case <-time.After(time.Second):
		t.Fatal("first task was not cancelled")
	}
}

func TestSurfaceSurfacesDecodeErrors(t *testing.T) {
	s := NewSurface()

	_, err := s.InspectLatest(context.Background(), []byte("definitely not a pdf"))
	assert.True(t, errors.Is(err, ErrDecode))
	assert.False(t, IsSuperseded(err))
}

func TestInspect(t *testing.T) {
	info, err := Inspect(context.Background(), autosigntest.PDF(t, 2, 612, 792))
	require.NoError(t, err)

	assert.Equal(t, 2, info.PageCount)
	page, ok := info.Page(2)
	require.True(t, ok)
	assert.InDelta(t, 612, page.Width, 0.01)
	assert.InDelta(t, 792, page.Height, 0.01)

	_, ok = info.Page(3)
	assert.False(t, ok)
}
