package patch_test

import (
	"encoding/json"
	"testing"

	"zuzuplan-backend/pkg/patch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskPatch struct {
	Title      patch.Field[string] `json:"title"`
	AssigneeID patch.Field[string] `json:"assigneeId"`
}

func TestField_DistinguishesAbsentNullAndValue(t *testing.T) {
	var p taskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"assigneeId": null}`), &p))

	assert.False(t, p.Title.Set)
	assert.True(t, p.AssigneeID.Set)
	assert.True(t, p.AssigneeID.Null)
	assert.Nil(t, p.AssigneeID.Ptr())

	p = taskPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"title": "Design homepage"}`), &p))
	assert.True(t, p.Title.Set)
	assert.False(t, p.Title.Null)
	assert.Equal(t, "Design homepage", *p.Title.Ptr())
}

func TestField_Marshal(t *testing.T) {
	out, err := json.Marshal(taskPatch{Title: patch.Of("x"), AssigneeID: patch.Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x","assigneeId":null}`, string(out))
}
