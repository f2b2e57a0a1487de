package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/termrelay/termrelay/internal/relay"
)

func submitStart(apiBase string, req relay.CreateRequest, out io.Writer) error {
	return submit(apiBase, http.MethodPost, req, out)
}

func submitFinish(apiBase string, req relay.UpdateRequest, out io.Writer) error {
	return submit(apiBase, http.MethodPut, req, out)
}

// submit posts an event to the daemon and prints the engine's display
// message. A 204 means the command did not qualify; that is not an error.
func submit(apiBase, method string, payload interface{}, out io.Writer) error {
	rc := resty.New().
		SetBaseURL(apiBase).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	var res relay.Result
	req := rc.R().SetBody(payload).SetResult(&res).SetError(&res)

	var resp *resty.Response
	var err error
	switch method {
	case http.MethodPost:
		resp, err = req.Post("/commands/")
	default:
		resp, err = req.Put("/commands/")
	}
	if err != nil {
		return fmt.Errorf("cannot reach termrelay daemon at %s: %w", apiBase, err)
	}

	if resp.StatusCode() == http.StatusNoContent {
		return nil
	}
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	if resp.IsError() && res.Message == "" {
		return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
