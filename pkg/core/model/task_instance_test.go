package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskInstance_AppLinks_ParsesJSONArray(t *testing.T) {
	ti := &TaskInstance{AppLinksRaw: `["http://rm:8088/app1", "http://rm:8088/app2"]`}
	assert.Equal(t, []string{"http://rm:8088/app1", "http://rm:8088/app2"}, ti.AppLinks())
}

func TestTaskInstance_AppLinks_EmptyReturnsNil(t *testing.T) {
	ti := &TaskInstance{}
	assert.Nil(t, ti.AppLinks())
}

func TestTaskInstance_AppLinks_InvalidJSONReturnsNil(t *testing.T) {
	ti := &TaskInstance{AppLinksRaw: "not json"}
	assert.Nil(t, ti.AppLinks())
}
