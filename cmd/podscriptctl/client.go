package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/go-resty/resty/v2"
)

type client struct {
	rc *resty.Client
}

type enqueueResponse struct {
	ID  string `json:"id"`
	Job string `json:"job"`
}

type statusResponse struct {
	State string `json:"state"`
}

func (c *client) init(urlStr string, timeout time.Duration) error {
	urlStr = strings.TrimRight(strings.TrimSpace(urlStr), "/")
	if !strings.HasPrefix(urlStr, "http") {
		return fmt.Errorf("wrong url '%s'", urlStr)
	}
	c.rc = resty.New().SetBaseURL(urlStr).SetTimeout(timeout)
	return nil
}

func (c *client) run(ctx context.Context, job string) (*persistence.RunSummary, []byte, error) {
	resp, err := c.rc.R().SetContext(ctx).Post("/run/" + job)
	if err := checkResp(resp, err, http.StatusOK); err != nil {
		return nil, nil, err
	}
	var res persistence.RunSummary
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return nil, nil, fmt.Errorf("can't decode summary: %w", err)
	}
	return &res, resp.Body(), nil
}

func (c *client) enqueue(ctx context.Context, job string) (*enqueueResponse, error) {
	resp, err := c.rc.R().SetContext(ctx).Post("/enqueue/" + job)
	if err := checkResp(resp, err, http.StatusAccepted); err != nil {
		return nil, err
	}
	var res enqueueResponse
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return nil, fmt.Errorf("can't decode response: %w", err)
	}
	return &res, nil
}

func (c *client) status(ctx context.Context) (string, error) {
	resp, err := c.rc.R().SetContext(ctx).Get("/status")
	if err := checkResp(resp, err, http.StatusOK); err != nil {
		return "", err
	}
	var res statusResponse
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return "", fmt.Errorf("can't decode response: %w", err)
	}
	return res.State, nil
}

func checkResp(resp *resty.Response, err error, code int) error {
	if err != nil {
		return fmt.Errorf("can't call: %w", err)
	}
	if resp.StatusCode() != code {
		return fmt.Errorf("resp code: %d, %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	return nil
}
