package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t,
		"https://cdn.example.com/menu-items/a.png",
		ObjectURL("https://cdn.example.com/", "lemon", "us-east-1", "menu-items/a.png"))
	assert.Equal(t,
		"https://lemon.s3.eu-west-1.amazonaws.com/menu-items/a.png",
		ObjectURL("", "lemon", "eu-west-1", "menu-items/a.png"))
}
