package models

type ProjectResponse struct {
	Project Project `json:"project"`
}

type ProjectListResponse struct {
	Projects []Project `json:"projects"`
}

type CreateProjectResponse struct {
	ProjectID string `json:"projectId"`
}

type VideoResponse struct {
	VideoURL string `json:"videoUrl"`
}

type PublishResponse struct {
	IsPublished bool `json:"isPublished"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
