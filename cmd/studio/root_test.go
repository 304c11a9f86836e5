package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"ugc-studio/internal/models"
)

func TestPromptYes(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.want, promptYes(strings.NewReader(tt.input), &out, "Delete?"), "input %q", tt.input)
		assert.Equal(t, "Delete? [y/N] ", out.String())
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "failed", status(models.Project{Error: "boom", GeneratedImage: "a"}))
	assert.Equal(t, "generating", status(models.Project{IsGenerating: true}))
	assert.Equal(t, "video ready", status(models.Project{GeneratedImage: "a", GeneratedVideo: "b"}))
	assert.Equal(t, "image ready", status(models.Project{GeneratedImage: "a"}))
	assert.Equal(t, "pending", status(models.Project{}))
}

func TestPrintListing(t *testing.T) {
	var out bytes.Buffer
	printListing(&out, nil)
	assert.Equal(t, "No projects\n", out.String())

	out.Reset()
	printListing(&out, []models.Project{{ID: "p1", ProductName: "Mug", AspectRatio: models.AspectPortrait, GeneratedImage: "a"}})
	assert.Equal(t, "p1\tMug\timage ready\t9:16\n", out.String())
}
