package models

import (
	"time"
)

type AspectRatio string

const (
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
)

// ParseAspectRatio maps anything other than "9:16" to the landscape default.
func ParseAspectRatio(s string) AspectRatio {
	if AspectRatio(s) == AspectPortrait {
		return AspectPortrait
	}
	return AspectLandscape
}

func (a AspectRatio) IsPortrait() bool {
	return a == AspectPortrait
}

// Project is a single generation task: the two uploaded inputs, the derived
// artifacts and the status flags the backend settles asynchronously.
type Project struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"userId,omitempty"`
	ProductName        string      `json:"productName,omitempty"`
	ProductDescription string      `json:"productDescription,omitempty"`
	UserPrompt         string      `json:"userPrompt,omitempty"`
	AspectRatio        AspectRatio `json:"aspectRatio,omitempty"`
	UploadedImages     []string    `json:"uploadedImages,omitempty"`
	GeneratedImage     string      `json:"generatedImage,omitempty"`
	GeneratedVideo     string      `json:"generatedVideo,omitempty"`
	IsGenerating       bool        `json:"isGenerating"`
	IsPublished        bool        `json:"isPublished"`
	Error              string      `json:"error,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          *time.Time  `json:"updatedAt,omitempty"`
}

func (p Project) HasImage() bool {
	return p.GeneratedImage != ""
}

func (p Project) HasVideo() bool {
	return p.GeneratedVideo != ""
}

// Failed reports whether the backend recorded a terminal generation error.
func (p Project) Failed() bool {
	return p.Error != ""
}
