package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "***", maskDSN("short"))
	assert.Equal(t, "host=db po...de=disable", maskDSN("host=db port=5432 user=postgres sslmode=disable"))
}
