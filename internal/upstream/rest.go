package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/termrelay/termrelay/internal/model"
)

// restClient speaks the upstream's oplog REST API.
//
// The trailing slash on the entries route matters: without it the upstream
// answers 200 OK without recording anything.
const restEntriesPath = "/oplog/api/entries/"

type restClient struct {
	rc      *resty.Client
	oplogID int64
}

type restResponse struct {
	ID     int64  `json:"id"`
	Detail string `json:"detail"`
}

func (c *restClient) CreateEntry(ctx context.Context, e *model.Entry) (int64, error) {
	log.Debug().Str("command", e.Command).Msg("[REST] creating entry")

	body := e.RestFields()
	body["oplog_id"] = c.oplogID

	httpResp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		Post(restEntriesPath)
	if err != nil {
		return 0, newError(KindTransport, err, "request to %s failed", c.rc.BaseURL)
	}
	return c.parse(httpResp.Body())
}

func (c *restClient) UpdateEntry(ctx context.Context, e *model.Entry) (int64, error) {
	log.Debug().Int64("gw_id", e.RemoteID).Msg("[REST] updating entry")

	body := e.RestFields()
	body["oplog_id"] = c.oplogID

	httpResp, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		Put(fmt.Sprintf("%s%d/?format=json", restEntriesPath, e.RemoteID))
	if err != nil {
		return 0, newError(KindTransport, err, "request to %s failed", c.rc.BaseURL)
	}
	return c.parse(httpResp.Body())
}

func (c *restClient) parse(body []byte) (int64, error) {
	var resp restResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, newError(KindProtocol, err, "malformed REST response")
	}
	if resp.Detail != "" {
		return 0, newError(KindApplication, nil, "%s", resp.Detail)
	}
	if resp.ID == 0 {
		return 0, newError(KindProtocol, nil, "REST response contained no entry ID")
	}
	return resp.ID, nil
}
