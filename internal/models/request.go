package models

// CreateProjectForm is the multipart form accepted by POST /api/project.
// The two source images are read from the "images" file field.
type CreateProjectForm struct {
	ProductName        string `form:"productName"`
	ProductDescription string `form:"productDescription"`
	UserPrompt         string `form:"userPrompt"`
	AspectRatio        string `form:"aspectRatio"`
}

type VideoRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}
