package match

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/rs/zerolog/log"
)

// MatchApp defines what the service layer needs from the match application
type MatchApp interface {
	Execute(ctx context.Context, ownerID string, matchID uuid.UUID, cmd Command) (Result, error)
	CreateMatch(ctx context.Context, ownerID, name string) (models.Match, error)
	GetMatch(ctx context.Context, ownerID string, id uuid.UUID) (models.Match, error)
	ListMatches(ctx context.Context, ownerID string) ([]models.Match, error)
	LatestMatch(ctx context.Context, ownerID string) (models.Match, error)
	DeleteMatch(ctx context.Context, ownerID string, id uuid.UUID) error
}

// Service exposes the match App over connect unary RPCs.
type Service struct {
	app      MatchApp
	validate *validator.Validate
}

func NewService(app MatchApp) *Service {
	return &Service{
		app:      app,
		validate: validator.New(),
	}
}

// Handler returns the mount path and handler for every match procedure.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	mux := http.NewServeMux()

	mux.Handle(Procedure("CreateMatch"), connect.NewUnaryHandler(Procedure("CreateMatch"), s.CreateMatch, opts...))
	mux.Handle(Procedure("GetMatch"), connect.NewUnaryHandler(Procedure("GetMatch"), s.GetMatch, opts...))
	mux.Handle(Procedure("ListMatches"), connect.NewUnaryHandler(Procedure("ListMatches"), s.ListMatches, opts...))
	mux.Handle(Procedure("LatestMatch"), connect.NewUnaryHandler(Procedure("LatestMatch"), s.LatestMatch, opts...))
	mux.Handle(Procedure("DeleteMatch"), connect.NewUnaryHandler(Procedure("DeleteMatch"), s.DeleteMatch, opts...))

	handleCommand[StartPeriod](mux, s, opts)
	handleCommand[StopPeriod](mux, s, opts)
	handleCommand[AdvancePeriod](mux, s, opts)
	handleCommand[EndMatch](mux, s, opts)
	handleCommand[ResetScoreboard](mux, s, opts)
	handleCommand[AddScore](mux, s, opts)
	handleCommand[SubtractScore](mux, s, opts)
	handleCommand[AddPenaltyStat](mux, s, opts)
	handleCommand[SubtractPenaltyStat](mux, s, opts)
	handleCommand[AddCard](mux, s, opts)
	handleCommand[RemoveCard](mux, s, opts)
	handleCommand[UpdateFormat](mux, s, opts)
	handleCommand[UpdateTeamBranding](mux, s, opts)
	handleCommand[UpdateDisplayFlags](mux, s, opts)
	handleCommand[UpdateDescription](mux, s, opts)
	handleCommand[RenameMatch](mux, s, opts)

	return "/" + ServiceName + "/", mux
}

func handleCommand[C Command](mux *http.ServeMux, s *Service, opts []connect.HandlerOption) {
	var zero C
	procedure := Procedure(zero.CommandName())
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, func(ctx context.Context, req *connect.Request[CommandRequest[C]]) (*connect.Response[CommandResponse], error) {
		return s.runCommand(ctx, req.Msg.MatchID, req.Msg.Command, req.Msg)
	}, opts...))
}

func (s *Service) runCommand(ctx context.Context, rawID string, cmd Command, msg any) (*connect.Response[CommandResponse], error) {
	owner, matchID, err := s.prepare(ctx, msg, rawID)
	if err != nil {
		return nil, err
	}

	res, err := s.app.Execute(ctx, owner, matchID, cmd)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CommandResponse{Match: res.Match, Applied: res.Applied}), nil
}

// CreateMatch creates a match owned by the caller
func (s *Service) CreateMatch(ctx context.Context, req *connect.Request[CreateMatchRequest]) (*connect.Response[MatchResponse], error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate.StructCtx(ctx, req.Msg); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	m, err := s.app.CreateMatch(ctx, owner, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MatchResponse{Match: m}), nil
}

// GetMatch returns one of the caller's matches
func (s *Service) GetMatch(ctx context.Context, req *connect.Request[MatchRequest]) (*connect.Response[MatchResponse], error) {
	owner, id, err := s.prepare(ctx, req.Msg, req.Msg.MatchID)
	if err != nil {
		return nil, err
	}

	m, err := s.app.GetMatch(ctx, owner, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MatchResponse{Match: m}), nil
}

// ListMatches returns the caller's matches, newest first
func (s *Service) ListMatches(ctx context.Context, _ *connect.Request[ListMatchesRequest]) (*connect.Response[ListMatchesResponse], error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := s.app.ListMatches(ctx, owner)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListMatchesResponse{Matches: matches}), nil
}

// LatestMatch returns the caller's newest match
func (s *Service) LatestMatch(ctx context.Context, _ *connect.Request[ListMatchesRequest]) (*connect.Response[MatchResponse], error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.app.LatestMatch(ctx, owner)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MatchResponse{Match: m}), nil
}

// DeleteMatch removes one of the caller's matches
func (s *Service) DeleteMatch(ctx context.Context, req *connect.Request[MatchRequest]) (*connect.Response[DeleteMatchResponse], error) {
	owner, id, err := s.prepare(ctx, req.Msg, req.Msg.MatchID)
	if err != nil {
		return nil, err
	}

	if err := s.app.DeleteMatch(ctx, owner, id); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteMatchResponse{}), nil
}

func (s *Service) owner(ctx context.Context) (string, error) {
	owner, ok := auth.OwnerFromContext(ctx)
	if !ok {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("missing owner"))
	}
	return owner, nil
}

// prepare resolves the caller, validates msg and parses the match id.
func (s *Service) prepare(ctx context.Context, msg any, rawID string) (string, uuid.UUID, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return "", uuid.Nil, err
	}
	if err := s.validate.StructCtx(ctx, msg); err != nil {
		return "", uuid.Nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return owner, id, nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case store.IsUnavailable(err):
		log.Warn().Err(err).Msg("match store unavailable")
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		log.Error().Err(err).Msg("match request failed")
		return connect.NewError(connect.CodeInternal, err)
	}
}
