package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedProject struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_LoadsOnceThenServesFromCache(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	loads := 0
	load := func(dest *cachedProject) func() error {
		return func() error {
			loads++
			*dest = cachedProject{ID: 7, Name: "Harbor Lights"}
			return nil
		}
	}

	var first cachedProject
	require.NoError(t, Aside(ctx, ProjectKey(7), &first, ProjectTTL, load(&first)))
	assert.True(t, mr.Exists("project:7"))

	var second cachedProject
	require.NoError(t, Aside(ctx, ProjectKey(7), &second, ProjectTTL, load(&second)))

	assert.Equal(t, 1, loads)
	assert.Equal(t, "Harbor Lights", second.Name)
}

func TestAside_LoaderErrorIsNotCached(t *testing.T) {
	mr := useMiniredis(t)

	var dest cachedProject
	err := Aside(context.Background(), ProjectKey(9), &dest, ProjectTTL, func() error {
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("project:9"))
}

func TestAside_NoClientCallsLoader(t *testing.T) {
	SetClient(nil)

	called := false
	var dest cachedProject
	require.NoError(t, Aside(context.Background(), ProjectKey(1), &dest, ProjectTTL, func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestInvalidate(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(ProjectKey(3), "{}"))
	require.NoError(t, mr.Set(MemberKey(3, 4), "{}"))
	require.NoError(t, mr.Set(MemberKey(3, 5), "{}"))

	InvalidateProject(ctx, 3)
	InvalidateMember(ctx, 3, 4)

	assert.False(t, mr.Exists(ProjectKey(3)))
	assert.False(t, mr.Exists("project:3:member:4"))
	assert.True(t, mr.Exists(MemberKey(3, 5)))
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	for _, addr := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		c, err := Dial(ctx, addr)
		require.NoError(t, err, addr)
		assert.Equal(t, mr.Addr(), c.Options().Addr)
		require.NoError(t, c.Close())
	}

	_, err := Dial(ctx, "")
	assert.Error(t, err)
	_, err = Dial(ctx, "redis://%zz")
	assert.Error(t, err)
}

func TestInitRedis_UnreachableDisablesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	InitRedis(addr)
	t.Cleanup(func() { SetClient(nil) })
	assert.Nil(t, GetClient())
}
