package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/types"
)

func TestRedisKeyIsStableAndPrefixed(t *testing.T) {
	r := NewRedisWithClient(nil, "resumescore:analysis:", time.Hour)

	k1 := r.Key("EXPERIENCE\nDeveloped X")
	k2 := r.Key("EXPERIENCE\nDeveloped X")
	k3 := r.Key("EXPERIENCE\nDeveloped Y")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, len("resumescore:analysis:")+64)
	assert.Contains(t, k1, "resumescore:analysis:")
}

// setupTestRedis connects to RESUMESCORE_TEST_REDIS (default localhost:6379)
// and skips the test when nothing is listening.
func setupTestRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("RESUMESCORE_TEST_REDIS")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisWithClient(client, "resumescore:test:", time.Minute)
}

func TestRedisRoundTrip(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()
	text := "SKILLS\npython aws " + time.Now().String()

	_, ok, err := r.Get(ctx, text)
	require.NoError(t, err)
	assert.False(t, ok)

	want := types.ResumeAnalysis{
		Score:        20,
		Industry:     types.IndustrySoftwareEngineering,
		SectionOrder: []types.SectionKind{types.SectionSkills},
		Sections: map[types.SectionKind]types.SectionAnalysis{
			types.SectionSkills: {Score: 20, Suggestions: []string{}},
		},
		Suggestions: []string{},
		Strengths:   []string{},
		Weaknesses:  []string{"Skills section needs improvement"},
	}
	require.NoError(t, r.Set(ctx, text, want))

	got, ok, err := r.Get(ctx, text)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
	_ = r.client.Del(ctx, r.Key(text))
}
