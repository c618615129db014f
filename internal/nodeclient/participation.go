package nodeclient

import (
	"context"
	"strconv"

	"github.com/Klingon-tech/klingnet-ledger/pkg/participation"
	"github.com/Klingon-tech/klingnet-ledger/pkg/types"
	"github.com/go-resty/resty/v2"
)

const participationPath = "/api/participation/v1"

type eventsResponse struct {
	EventIDs []participation.EventID `json:"eventIds"`
}

// ParticipationEventIDs lists the events the node tracks, optionally
// filtered by payload type.
func (c *Client) ParticipationEventIDs(ctx context.Context, payloadType *int) ([]participation.EventID, error) {
	var resp eventsResponse
	err := c.do(ctx, "participation-events", func(r *resty.Request) (*resty.Response, error) {
		if payloadType != nil {
			r.SetQueryParam("type", strconv.Itoa(*payloadType))
		}
		return r.Get(participationPath + "/events")
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.EventIDs, nil
}

// ParticipationEvent returns the description of an event.
func (c *Client) ParticipationEvent(ctx context.Context, id participation.EventID) (*participation.EventData, error) {
	var data participation.EventData
	if err := c.get(ctx, "participation-event", participationPath+"/events/"+id.String(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ParticipationOutputStatus returns an output's participations.
func (c *Client) ParticipationOutputStatus(ctx context.Context, id types.OutputID) (*participation.OutputStatusResponse, error) {
	var resp participation.OutputStatusResponse
	if err := c.get(ctx, "participation-output", participationPath+"/outputs/"+id.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
