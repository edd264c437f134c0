/*
 * @module service/models/enums_test
 * @description 枚举校验单元测试
 * @architecture 测试层 - 单元测试
 */

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStatusKind(t *testing.T) {
	for _, kind := range StatusKinds {
		assert.True(t, IsValidStatusKind(string(kind)))
	}
	assert.False(t, IsValidStatusKind("unknown_kind"))
	assert.False(t, IsValidStatusKind(""))
	assert.False(t, IsValidStatusKind("Sent"))
}

func TestIsValidDirection(t *testing.T) {
	assert.True(t, IsValidDirection("inbound"))
	assert.True(t, IsValidDirection("outbound"))
	assert.False(t, IsValidDirection("sideways"))
	assert.False(t, IsValidDirection(""))
}

func TestIsValidMessageType(t *testing.T) {
	assert.Len(t, MessageTypes, 13)
	assert.True(t, IsValidMessageType("text"))
	assert.True(t, IsValidMessageType("template"))
	assert.False(t, IsValidMessageType("carrier_pigeon"))
}

func TestIsValidAuthorType(t *testing.T) {
	assert.Len(t, AuthorTypes, 6)
	assert.True(t, IsValidAuthorType("OWNER"))
	assert.False(t, IsValidAuthorType("owner"))
}
