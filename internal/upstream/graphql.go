package upstream

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/termrelay/termrelay/internal/model"
)

// Mutation inserting a new oplog entry.
const insertMutation = `
mutation InsertTermrelayLog (
    $oplog_id: bigint!, $start_time: timestamptz, $end_time: timestamptz, $source_host: String,
    $destination_host: String, $tool: String, $user_context: String, $command: String, $description: String,
    $output: String, $comments: String, $operator: String
) {
    insert_oplogEntry(objects: {
        oplog: $oplog_id,
        startDate: $start_time,
        endDate: $end_time,
        sourceIp: $source_host,
        destIp: $destination_host,
        tool: $tool,
        userContext: $user_context,
        command: $command,
        description: $description,
        output: $output,
        comments: $comments,
        operatorName: $operator,
    }) {
        returning { id }
    }
}`

// Mutation updating an existing oplog entry.
const updateMutation = `
mutation UpdateTermrelayLog (
    $gw_id: bigint!, $oplog_id: bigint!, $start_time: timestamptz, $end_time: timestamptz, $source_host: String,
    $destination_host: String, $tool: String, $user_context: String, $command: String, $description: String,
    $output: String, $comments: String, $operator: String
) {
    update_oplogEntry(where: {
        id: {_eq: $gw_id}
    }, _set: {
        oplog: $oplog_id,
        startDate: $start_time,
        endDate: $end_time,
        sourceIp: $source_host,
        destIp: $destination_host,
        tool: $tool,
        userContext: $user_context,
        command: $command,
        description: $description,
        output: $output,
        comments: $comments,
        operatorName: $operator,
    }) {
        returning { id }
    }
}`

// graphQLClient speaks the upstream's Hasura-style GraphQL API.
type graphQLClient struct {
	rc      *resty.Client
	oplogID int64
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type gqlReturning struct {
	Returning []struct {
		ID int64 `json:"id"`
	} `json:"returning"`
}

type gqlResponse struct {
	Data struct {
		Insert *gqlReturning `json:"insert_oplogEntry"`
		Update *gqlReturning `json:"update_oplogEntry"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *graphQLClient) CreateEntry(ctx context.Context, e *model.Entry) (int64, error) {
	log.Debug().Str("command", e.Command).Msg("[GraphQL] creating entry")

	resp, err := c.execute(ctx, insertMutation, e.GraphQLVars())
	if err != nil {
		return 0, err
	}
	if resp.Data.Insert == nil || len(resp.Data.Insert.Returning) == 0 {
		return 0, newError(KindProtocol, nil, "GraphQL response contained no inserted entry ID")
	}
	return resp.Data.Insert.Returning[0].ID, nil
}

func (c *graphQLClient) UpdateEntry(ctx context.Context, e *model.Entry) (int64, error) {
	log.Debug().Int64("gw_id", e.RemoteID).Msg("[GraphQL] updating entry")

	vars := e.GraphQLVars()
	vars["gw_id"] = e.RemoteID
	resp, err := c.execute(ctx, updateMutation, vars)
	if err != nil {
		return 0, err
	}
	if resp.Data.Update == nil || len(resp.Data.Update.Returning) == 0 {
		return 0, newError(KindProtocol, nil, "GraphQL response contained no updated entry ID")
	}
	return resp.Data.Update.Returning[0].ID, nil
}

func (c *graphQLClient) execute(ctx context.Context, query string, vars map[string]interface{}) (*gqlResponse, error) {
	vars["oplog_id"] = c.oplogID

	httpResp, err := c.rc.R().
		SetContext(ctx).
		SetBody(&gqlRequest{Query: query, Variables: vars}).
		Post("/v1/graphql")
	if err != nil {
		return nil, newError(KindTransport, err, "request to %s failed", c.rc.BaseURL)
	}
	if httpResp.StatusCode() != http.StatusOK {
		return nil, newError(KindApplication, nil, "upstream returned status %d: %s",
			httpResp.StatusCode(), httpResp.String())
	}

	var resp gqlResponse
	if err := json.Unmarshal(httpResp.Body(), &resp); err != nil {
		return nil, newError(KindProtocol, err, "malformed GraphQL response")
	}
	if len(resp.Errors) > 0 {
		return nil, newError(KindApplication, nil, "%s", resp.Errors[0].Message)
	}
	return &resp, nil
}
