//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type BodyEdit func(map[string]any)

// Set overrides a JSON field on the request body.
func Set(key string, value any) BodyEdit {
	return func(m map[string]any) { m[key] = value }
}

// Drop removes a JSON field, simulating a client that omits it.
func Drop(key string) BodyEdit {
	return func(m map[string]any) { delete(m, key) }
}

// Body turns a request DTO into its JSON object form and applies the edits.
func Body(t *testing.T, dto any, edits ...BodyEdit) map[string]any {
	t.Helper()
	raw, err := json.Marshal(dto)
	require.NoError(t, err)
	m := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, edit := range edits {
		edit(m)
	}
	return m
}
