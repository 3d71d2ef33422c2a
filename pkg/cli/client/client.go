// Package client 是Master控制面HTTP API的客户端封装，供pkg/cli/cmd调用
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/workflow-master/core/pkg/api/dto"
)

// Client 是Master控制面的HTTP客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建一个指向baseURL的Client
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Status 查询GET /status
func (c *Client) Status() (*dto.ClusterStatusResponse, error) {
	var resp dto.APIResponse[dto.ClusterStatusResponse]
	if err := c.get("/status", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// Pause 调用 POST /processes/:id/pause
func (c *Client) Pause(processInstanceID int64) (*dto.ProcessActionResponse, error) {
	return c.action(processInstanceID, "pause")
}

// Resume 调用 POST /processes/:id/resume
func (c *Client) Resume(processInstanceID int64) (*dto.ProcessActionResponse, error) {
	return c.action(processInstanceID, "resume")
}

// Stop 调用 POST /processes/:id/stop
func (c *Client) Stop(processInstanceID int64) (*dto.ProcessActionResponse, error) {
	return c.action(processInstanceID, "stop")
}

// Progress 调用 GET /processes/:id/progress
func (c *Client) Progress(processInstanceID int64) (*dto.ProcessProgressResponse, error) {
	var resp dto.APIResponse[dto.ProcessProgressResponse]
	if err := c.get(fmt.Sprintf("/processes/%d/progress", processInstanceID), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

func (c *Client) action(processInstanceID int64, verb string) (*dto.ProcessActionResponse, error) {
	path := fmt.Sprintf("/processes/%d/%s", processInstanceID, verb)
	var resp dto.APIResponse[dto.ProcessActionResponse]
	if err := c.post(path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()
	return c.parseResponse(resp, result)
}

func (c *Client) post(path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", reqBody)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()
	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}
	if resp.StatusCode >= 400 && len(body) == 0 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应体失败: %w", err)
	}
	return nil
}
