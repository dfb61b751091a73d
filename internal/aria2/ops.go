package aria2

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GlobalStat is the parsed result of aria2.getGlobalStat. aria2 reports the
// numbers as strings on the wire; they are decoded into native types here.
type GlobalStat struct {
	DownloadSpeed int64 // bytes/sec
	UploadSpeed   int64 // bytes/sec
	NumActive     int
	NumWaiting    int
	NumStopped    int
}

// Unfinished is the number of tasks not yet complete: active plus waiting.
func (s GlobalStat) Unfinished() int {
	return s.NumActive + s.NumWaiting
}

// flexInt decodes an integer that may arrive quoted ("123") or bare (123).
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

type globalStatWire struct {
	DownloadSpeed flexInt `json:"downloadSpeed"`
	UploadSpeed   flexInt `json:"uploadSpeed"`
	NumActive     flexInt `json:"numActive"`
	NumWaiting    flexInt `json:"numWaiting"`
	NumStopped    flexInt `json:"numStopped"`
}

// Version performs aria2.getVersion and returns the daemon version string.
// Doubles as the liveness probe: it is the cheapest call aria2 offers.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.call(ctx, "aria2.getVersion", "", c.tokenParams())
	if err != nil {
		return "", err
	}
	var v struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(res, &v); err != nil {
		return "", fmt.Errorf("parse getVersion result: %w", err)
	}
	return v.Version, nil
}

// GlobalStat performs aria2.getGlobalStat and returns the current transfer
// statistics.
func (c *Client) GlobalStat(ctx context.Context) (GlobalStat, error) {
	res, err := c.call(ctx, "aria2.getGlobalStat", "stat", c.tokenParams())
	if err != nil {
		return GlobalStat{}, err
	}
	var w globalStatWire
	if err := json.Unmarshal(res, &w); err != nil {
		return GlobalStat{}, fmt.Errorf("parse getGlobalStat result: %w", err)
	}
	return GlobalStat{
		DownloadSpeed: int64(w.DownloadSpeed),
		UploadSpeed:   int64(w.UploadSpeed),
		NumActive:     int(w.NumActive),
		NumWaiting:    int(w.NumWaiting),
		NumStopped:    int(w.NumStopped),
	}, nil
}
