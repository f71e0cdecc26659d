package graphql

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/service"
)

//go:embed schema.graphql
var schemaSDL string

const (
	maxDepth       = 10
	maxParallelism = 10
)

// Resolver is the root resolver for both queries and mutations.
type Resolver struct {
	Tunes *service.TuneService
	Users *service.UserService
}

func NewSchema(r *Resolver) *graphqlgo.Schema {
	return graphqlgo.MustParseSchema(schemaSDL, r,
		graphqlgo.MaxDepth(maxDepth),
		graphqlgo.MaxParallelism(maxParallelism),
		graphqlgo.Logger(panicLogger{}),
	)
}

// NewHandler serves POST requests carrying {query, operationName, variables}.
func NewHandler(r *Resolver) *relay.Handler {
	return &relay.Handler{Schema: NewSchema(r)}
}

type allTunesArgs struct {
	Filter   *string
	Page     int32
	PageSize int32
	Sorting  string
}

func (r *Resolver) AllTunes(ctx context.Context, args allTunesArgs) ([]*TuneResolver, error) {
	params := service.SearchParams{
		Page:     int(args.Page),
		PageSize: int(args.PageSize),
		Sorting:  service.MapTuneSorting(service.TuneSort(args.Sorting)),
	}
	if args.Filter != nil {
		params.Filter = *args.Filter
	}

	res, err := r.Tunes.Search(ctx, params)
	if err != nil {
		return nil, resolverError(ctx, "all_tunes_error", err)
	}
	out := make([]*TuneResolver, 0, len(res.Tunes))
	for i := range res.Tunes {
		out = append(out, &TuneResolver{tune: &res.Tunes[i]})
	}
	return out, nil
}

func (r *Resolver) User(ctx context.Context, args struct{ Email EmailAddress }) (*UserResolver, error) {
	user, err := r.Users.FindByEmail(ctx, string(args.Email))
	if errors.Is(err, service.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, resolverError(ctx, "user_error", err)
	}
	return &UserResolver{user: user}, nil
}

type tuneInput struct {
	Album  *string
	Artist string
	Title  string
	URL    *URL
}

func (r *Resolver) CreateTune(ctx context.Context, args struct{ Input tuneInput }) (*TuneResolver, error) {
	if err := guard(ctx, authz.OpCreateTune); err != nil {
		return nil, err
	}

	in := service.TuneInput{Artist: args.Input.Artist, Title: args.Input.Title}
	if args.Input.Album != nil {
		in.Album = *args.Input.Album
	}
	if args.Input.URL != nil {
		in.URL = string(*args.Input.URL)
	}

	tune, err := r.Tunes.Create(ctx, in)
	if err != nil {
		return nil, resolverError(ctx, "create_tune_error", err)
	}
	return &TuneResolver{tune: tune}, nil
}

type tuneVoteInput struct {
	TuneID    graphqlgo.ID
	Direction string
	Comment   *string
}

func (r *Resolver) VoteOnTune(ctx context.Context, args struct{ Input tuneVoteInput }) (*TuneVotePayload, error) {
	if err := guard(ctx, authz.OpVoteOnTune); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(string(args.Input.TuneID))
	if err != nil {
		return nil, resolverError(ctx, "vote_error", fmt.Errorf("tuneID must be a uuid: %w", service.ErrValidation))
	}
	comment := ""
	if args.Input.Comment != nil {
		comment = *args.Input.Comment
	}

	out, err := r.Tunes.Vote(ctx, id, offsetFor(args.Input.Direction), comment)
	if err != nil {
		return nil, resolverError(ctx, "vote_error", err)
	}
	return &TuneVotePayload{tune: out.Tune, vote: out.Vote}, nil
}

type logInInput struct {
	Email    EmailAddress
	Password string
}

// LogIn yields null when the credentials do not match.
func (r *Resolver) LogIn(ctx context.Context, args struct{ Input logInInput }) (*string, error) {
	res, err := r.Users.LogIn(ctx, string(args.Input.Email), args.Input.Password)
	if err != nil {
		return nil, resolverError(ctx, "log_in_error", err)
	}
	if res == nil {
		return nil, nil
	}
	return &res.Token, nil
}

type signUpInput struct {
	Email     EmailAddress
	FirstName string
	LastName  string
	Password  string
}

func (r *Resolver) SignUp(ctx context.Context, args struct{ Input signUpInput }) (string, error) {
	res, err := r.Users.SignUp(ctx, service.SignUpInput{
		Email:     string(args.Input.Email),
		FirstName: args.Input.FirstName,
		LastName:  args.Input.LastName,
		Password:  args.Input.Password,
	})
	if err != nil {
		return "", resolverError(ctx, "sign_up_error", err)
	}
	return res.Token, nil
}

func (r *Resolver) ToggleMFA(ctx context.Context, args struct{ Enabled bool }) (*ToggleMFAPayload, error) {
	if err := guard(ctx, authz.OpToggleMFA); err != nil {
		return nil, err
	}

	status, err := r.Users.ToggleMFA(ctx, authz.FromContext(ctx).Email, args.Enabled)
	if err != nil {
		return nil, resolverError(ctx, "toggle_mfa_error", err)
	}
	return &ToggleMFAPayload{status: status}, nil
}

func roleEnum(role string) string {
	return strings.ToUpper(role)
}
