package graphql

import (
	"context"

	graphqlgo "github.com/graph-gophers/graphql-go"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/service"
)

const (
	DirectionUp   = "UPVOTE"
	DirectionDown = "DOWNVOTE"
)

func offsetFor(direction string) int {
	if direction == DirectionUp {
		return 1
	}
	return -1
}

type TuneResolver struct {
	tune *models.Tune
}

func (t *TuneResolver) ID() *graphqlgo.ID {
	id := graphqlgo.ID(t.tune.ID.String())
	return &id
}

func (t *TuneResolver) Album() *string { return t.tune.Album }
func (t *TuneResolver) Artist() string { return t.tune.Artist }
func (t *TuneResolver) CreatedAt() DateTime { return DateTime{t.tune.CreatedAt} }
func (t *TuneResolver) Score() int32 { return int32(t.tune.Score) }
func (t *TuneResolver) Title() string { return t.tune.Title }
func (t *TuneResolver) VoteCount() int32 { return int32(t.tune.VoteCount()) }

func (t *TuneResolver) URL() *URL {
	if t.tune.URL == nil {
		return nil
	}
	u := URL(*t.tune.URL)
	return &u
}

func (t *TuneResolver) Votes() []*VoteResolver {
	out := make([]*VoteResolver, 0, len(t.tune.Votes))
	for i := range t.tune.Votes {
		out = append(out, &VoteResolver{vote: &t.tune.Votes[i]})
	}
	return out
}

type VoteResolver struct {
	vote *models.Vote
}

func (v *VoteResolver) Comment() *string { return v.vote.Comment }
func (v *VoteResolver) CreatedAt() DateTime { return DateTime{v.vote.CreatedAt} }

func (v *VoteResolver) Direction() string {
	if v.vote.Offset > 0 {
		return DirectionUp
	}
	return DirectionDown
}

type TuneVotePayload struct {
	tune *models.Tune
	vote *models.Vote
}

func (p *TuneVotePayload) Tune() *TuneResolver { return &TuneResolver{tune: p.tune} }
func (p *TuneVotePayload) Vote() *VoteResolver { return &VoteResolver{vote: p.vote} }

type UserResolver struct {
	user *models.User
}

func (u *UserResolver) ID() *graphqlgo.ID {
	id := graphqlgo.ID(u.user.ID.String())
	return &id
}

func (u *UserResolver) CreatedAt() DateTime { return DateTime{u.user.CreatedAt} }
func (u *UserResolver) Email() EmailAddress { return EmailAddress(u.user.Email) }
func (u *UserResolver) FirstName() string { return u.user.FirstName }
func (u *UserResolver) LastName() string { return u.user.LastName }

func (u *UserResolver) Roles(ctx context.Context) ([]string, error) {
	if err := guard(ctx, authz.OpUserRoles); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(u.user.Roles))
	for _, r := range u.user.Roles {
		out = append(out, roleEnum(r))
	}
	return out, nil
}

type ToggleMFAPayload struct {
	status *service.MFAStatus
}

func (p *ToggleMFAPayload) Enabled() bool { return p.status.Enabled }

func (p *ToggleMFAPayload) URL() *URL {
	if p.status.URL == nil {
		return nil
	}
	u := URL(*p.status.URL)
	return &u
}
