package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"ugc-studio/internal/models"
)

// TokenSource yields the bearer token for the current session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token, typically read from configuration.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// Client calls the studio HTTP API with the session's bearer token.
type Client struct {
	http   fastshot.ClientHttpMethods
	tokens TokenSource
}

// New returns a Client for baseURL. Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	c := fastshot.NewClient(baseURL)
	return &Client{
		http: c.Config().SetTimeout(timeout).
			Config().SetFollowRedirects(true).
			Header().Add("Content-Type", "application/json").
			Build(),
		tokens: tokens,
	}
}

// SignedIn reports whether the token source currently yields a token.
func (c *Client) SignedIn(ctx context.Context) bool {
	_, err := c.tokens.Token(ctx)
	return err == nil
}

// GetProject fetches one of the signed-in user's projects.
func (c *Client) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var res models.ProjectResponse
	if err := c.do(ctx, c.http.GET("/api/user/projects/"+url.PathEscape(projectID)), &res); err != nil {
		return nil, err
	}
	return &res.Project, nil
}

// ListProjects returns the signed-in user's projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var res models.ProjectListResponse
	if err := c.do(ctx, c.http.GET("/api/user/projects"), &res); err != nil {
		return nil, err
	}
	return res.Projects, nil
}

// ListPublished returns every published project, newest first.
func (c *Client) ListPublished(ctx context.Context) ([]models.Project, error) {
	var res models.ProjectListResponse
	if err := c.do(ctx, c.http.GET("/api/project/published"), &res); err != nil {
		return nil, err
	}
	return res.Projects, nil
}

// GenerateVideo blocks until the server has produced and stored the video.
func (c *Client) GenerateVideo(ctx context.Context, projectID string) (string, error) {
	var res models.VideoResponse
	req := c.http.POST("/api/project/video").Body().AsJSON(models.VideoRequest{ProjectID: projectID})
	if err := c.do(ctx, req, &res); err != nil {
		return "", err
	}
	return res.VideoURL, nil
}

// TogglePublish flips the published flag and returns the new value.
func (c *Client) TogglePublish(ctx context.Context, projectID string) (bool, error) {
	var res models.PublishResponse
	if err := c.do(ctx, c.http.POST("/api/user/publish/"+url.PathEscape(projectID)), &res); err != nil {
		return false, err
	}
	return res.IsPublished, nil
}

// DeleteProject returns the server's confirmation message.
func (c *Client) DeleteProject(ctx context.Context, projectID string) (string, error) {
	var res models.MessageResponse
	if err := c.do(ctx, c.http.DELETE("/api/project/"+url.PathEscape(projectID)), &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *Client) do(ctx context.Context, req *fastshot.RequestBuilder, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	resp, err := req.
		Context().Set(ctx).
		Header().Add("Accept", "application/json").
		Header().Add("Authorization", "Bearer "+token).
		Send()
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body().Close()

	return parseHTTPResponse(*resp, out)
}

func parseHTTPResponse(resp fastshot.Response, result any) error {
	if resp.Status().IsError() {
		apiErr := &APIError{Status: resp.Status().Code()}
		body, err := resp.Body().AsString()
		if err == nil {
			var payload models.ErrorResponse
			if json.Unmarshal([]byte(body), &payload) == nil {
				apiErr.Message = payload.Message
			}
		}
		return apiErr
	}

	if err := resp.Body().AsJSON(result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
