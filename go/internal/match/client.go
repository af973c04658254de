package match

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/models"
)

// Client calls the match service over connect with the JSON codec.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

// NewClient returns a client for the service at baseURL. A non-empty token
// is sent as a bearer token; otherwise ownerID is sent in the development
// owner header.
func NewClient(httpClient connect.HTTPClient, baseURL, token, ownerID string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	headers := connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token != "" {
				req.Header().Set("Authorization", "Bearer "+token)
			} else if ownerID != "" {
				req.Header().Set(auth.DevOwnerHeader, ownerID)
			}
			return next(ctx, req)
		}
	})
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		opts:       []connect.ClientOption{connect.WithCodec(Codec{}), connect.WithInterceptors(headers)},
	}
}

func call[Req, Res any](ctx context.Context, c *Client, method string, msg *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](c.httpClient, c.baseURL+Procedure(method), c.opts...)
	res, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) CreateMatch(ctx context.Context, name string) (models.Match, error) {
	res, err := call[CreateMatchRequest, MatchResponse](ctx, c, "CreateMatch", &CreateMatchRequest{Name: name})
	if err != nil {
		return models.Match{}, err
	}
	return res.Match, nil
}

func (c *Client) GetMatch(ctx context.Context, id uuid.UUID) (models.Match, error) {
	res, err := call[MatchRequest, MatchResponse](ctx, c, "GetMatch", &MatchRequest{MatchID: id.String()})
	if err != nil {
		return models.Match{}, err
	}
	return res.Match, nil
}

func (c *Client) ListMatches(ctx context.Context) ([]models.Match, error) {
	res, err := call[ListMatchesRequest, ListMatchesResponse](ctx, c, "ListMatches", &ListMatchesRequest{})
	if err != nil {
		return nil, err
	}
	return res.Matches, nil
}

func (c *Client) LatestMatch(ctx context.Context) (models.Match, error) {
	res, err := call[ListMatchesRequest, MatchResponse](ctx, c, "LatestMatch", &ListMatchesRequest{})
	if err != nil {
		return models.Match{}, err
	}
	return res.Match, nil
}

func (c *Client) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	_, err := call[MatchRequest, DeleteMatchResponse](ctx, c, "DeleteMatch", &MatchRequest{MatchID: id.String()})
	return err
}

// Send runs cmd against the match. The command's concrete type selects the
// procedure.
func Send[C Command](ctx context.Context, c *Client, id uuid.UUID, cmd C) (Result, error) {
	res, err := call[CommandRequest[C], CommandResponse](ctx, c, cmd.CommandName(), &CommandRequest[C]{
		MatchID: id.String(),
		Command: cmd,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Match: res.Match, Applied: res.Applied}, nil
}
