package capability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	calls    atomic.Int32
	provider Provider
	err      error
}

func (*countingResolver) Name() string { return "counting" }

func (c *countingResolver) Resolve(_ string) (Provider, error) {
	c.calls.Add(1)
	return c.provider, c.err
}

func TestReference_ResolvesOnce(t *testing.T) {
	t.Parallel()

	resolver := &countingResolver{provider: staticProvider("a")}
	ref := NewReference("bugsmusic", resolver)
	assert.Equal(t, "bugsmusic", ref.Name())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := ref.Provider()
			assert.NoError(t, err)
			assert.NotNil(t, p)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), resolver.calls.Load())
}

func TestReference_MemoizesFailure(t *testing.T) {
	t.Parallel()

	resolver := &countingResolver{err: &ResolutionError{Capability: "x", Attempts: []error{ErrNotFound}}}
	ref := NewReference("x", resolver)

	_, err1 := ref.Provider()
	_, err2 := ref.Provider()

	require.Error(t, err1)
	assert.Same(t, err1, err2)
	assert.ErrorIs(t, err1, ErrUnresolved)
	assert.Equal(t, int32(1), resolver.calls.Load())
}

type panickingResolver struct{ calls atomic.Int32 }

func (*panickingResolver) Name() string { return "panicking" }

func (p *panickingResolver) Resolve(string) (Provider, error) {
	p.calls.Add(1)
	panic("missing browser binary")
}

func TestReference_ResolverPanicIsUnresolved(t *testing.T) {
	t.Parallel()

	resolver := &panickingResolver{}
	ref := NewReference("danawa", resolver)

	for i := 0; i < 2; i++ {
		p, err := ref.Provider()
		assert.Nil(t, p)
		require.ErrorIs(t, err, ErrUnresolved)
		assert.ErrorContains(t, err, "missing browser binary")
	}
	assert.Equal(t, int32(1), resolver.calls.Load())
}

func TestReference_NilProviderIsUnresolved(t *testing.T) {
	t.Parallel()

	ref := NewReference("x", &countingResolver{})
	p, err := ref.Provider()
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestInvoke(t *testing.T) {
	t.Parallel()

	ok := Invoke(context.Background(), staticProvider("r1", "r2"))
	assert.True(t, ok.OK())
	assert.Equal(t, []Record{"r1", "r2"}, ok.Records())
	assert.NoError(t, ok.Err())

	empty := Invoke(context.Background(), ProviderFunc(func(context.Context) ([]Record, error) {
		return nil, nil
	}))
	assert.True(t, empty.OK())
	assert.NotNil(t, empty.Records())
	assert.Empty(t, empty.Records())

	failed := Invoke(context.Background(), ProviderFunc(func(context.Context) ([]Record, error) {
		return []Record{"partial"}, errors.New("upstream timeout")
	}))
	assert.False(t, failed.OK())
	assert.Nil(t, failed.Records())
	assert.EqualError(t, failed.Err(), "upstream timeout")

	panicked := Invoke(context.Background(), ProviderFunc(func(context.Context) ([]Record, error) {
		panic("selector drifted")
	}))
	assert.False(t, panicked.OK())
	assert.ErrorContains(t, panicked.Err(), "selector drifted")
}

func TestFailure_NilError(t *testing.T) {
	t.Parallel()

	res := Failure(nil)
	assert.False(t, res.OK())
	assert.Error(t, res.Err())
}
