package cache

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
)

func register(_ context.Context, n string) (string, error) {
	if n == "bad" {
		return "", &api.Error{StatusCode: http.StatusUnprocessableEntity, Code: "VALIDATION", Message: "invalid vehicle number"}
	}
	return "id-" + n, nil
}

func TestBatch_PartialFailure(t *testing.T) {
	got := Batch(context.Background(), []string{"a", "bad", "c"}, 2, register)

	require.True(t, got.IsSuccess())
	assert.Equal(t, []string{"id-a", "id-c"}, got.Data().Succeeded)

	require.Len(t, got.Data().Failed, 1)
	f := got.Data().Failed[0]
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, "bad", f.Input)
	assert.Equal(t, "invalid vehicle number", f.Err.Message)
}

func TestBatch_AllFailed(t *testing.T) {
	got := Batch(context.Background(), []string{"bad", "bad"}, 0, register)

	require.True(t, got.IsError())
	assert.Contains(t, got.Err().Message, "invalid vehicle number")
	assert.Equal(t, http.StatusUnprocessableEntity, got.Err().StatusCode)
}

func TestBatch_Empty(t *testing.T) {
	got := Batch(context.Background(), nil, 1, register)
	require.True(t, got.IsSuccess())
	assert.Empty(t, got.Data().Succeeded)
}

func TestBatch_KeepsOrder(t *testing.T) {
	in := make([]string, 20)
	for i := range in {
		in[i] = fmt.Sprint(i)
	}

	got := Batch(context.Background(), in, 3, register)
	require.True(t, got.IsSuccess())
	for i, id := range got.Data().Succeeded {
		assert.Equal(t, "id-"+in[i], id)
	}
}
