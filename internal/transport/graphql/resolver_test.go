package graphql

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/hash"
	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/repo"
	"github.com/Skotchmaster/toptunez/internal/service"
	"github.com/Skotchmaster/toptunez/internal/testutil"
	"github.com/Skotchmaster/toptunez/pkg/tokens"
)

func TestMain(m *testing.M) {
	hash.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

var (
	admin = &authz.Identity{Email: "admin@toptunez.dev", Roles: []string{models.RoleAdmin}}
	voter = &authz.Identity{Email: "john@smith.org"}
)

type testEnv struct {
	Schema *graphqlgo.Schema
	Repo   *repo.GormRepo
	Users  *service.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := &repo.GormRepo{DB: testutil.NewDB(t)}
	events := &testutil.EventRecorder{}
	users := &service.UserService{Repo: r, Tokens: tokens.NewIssuer([]byte("gql-secret"), time.Minute), Events: events}
	return &testEnv{
		Repo:  r,
		Users: users,
		Schema: NewSchema(&Resolver{
			Tunes: &service.TuneService{Repo: r, Events: events},
			Users: users,
		}),
	}
}

func (env *testEnv) exec(t *testing.T, id *authz.Identity, query string, vars map[string]any) (map[string]any, []map[string]any) {
	t.Helper()
	ctx := context.Background()
	if id != nil {
		ctx = authz.WithIdentity(ctx, id)
	}
	resp := env.Schema.Exec(ctx, query, "", vars)

	var data map[string]any
	if len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, &data))
	}
	var errs []map[string]any
	raw, err := json.Marshal(resp.Errors)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &errs))
	return data, errs
}

func errorCode(e map[string]any) string {
	ext, _ := e["extensions"].(map[string]any)
	code, _ := ext["code"].(string)
	return code
}

func seed(t *testing.T, env *testEnv) []models.Tune {
	t.Helper()
	base := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	tunes := []models.Tune{
		{Artist: "Dash Berlin", Title: "World Falls Apart", CreatedAt: base},
		{Artist: "Joachim Pastor", Title: "Kenia", CreatedAt: base.Add(time.Minute)},
		{Artist: "Hot Since 82", Title: "Sky", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range tunes {
		require.NoError(t, env.Repo.CreateTune(context.Background(), &tunes[i]))
	}
	return tunes
}

const allTunesQuery = `query($sorting: TuneSort, $page: Int, $pageSize: Int) {
  allTunes(sorting: $sorting, page: $page, pageSize: $pageSize) { title score voteCount }
}`

func titlesOf(data map[string]any) []string {
	var out []string
	for _, t := range data["allTunes"].([]any) {
		out = append(out, t.(map[string]any)["title"].(string))
	}
	return out
}

func TestAllTunes(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env)

	data, errs := env.exec(t, nil, `{ allTunes { title } }`, nil)
	require.Empty(t, errs)
	assert.Equal(t, []string{"Sky", "Kenia", "World Falls Apart"}, titlesOf(data))

	data, errs = env.exec(t, nil, allTunesQuery, map[string]any{"sorting": "TITLE_ASC", "page": 2, "pageSize": 1})
	require.Empty(t, errs)
	assert.Equal(t, []string{"Sky"}, titlesOf(data))

	data, errs = env.exec(t, nil, `{ allTunes(filter: "kenia") { title artist } }`, nil)
	require.Empty(t, errs)
	assert.Equal(t, []string{"Kenia"}, titlesOf(data))
}

const createTuneMutation = `mutation($input: TuneInput!) {
  createTune(input: $input) { id title url voteCount votes { direction } }
}`

func TestCreateTune_Guarded(t *testing.T) {
	env := newTestEnv(t)
	vars := map[string]any{"input": map[string]any{
		"artist": "Joachim Pastor",
		"title":  "Kenia",
		"url":    "https://www.youtube.com/watch?v=8PYXOwwfW2o",
	}}

	_, errs := env.exec(t, nil, createTuneMutation, vars)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))
	assert.Equal(t, "createTune requires authentication", errs[0]["message"])

	_, errs = env.exec(t, voter, createTuneMutation, vars)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeForbidden, errorCode(errs[0]))
	assert.Equal(t, "createTune requires the authenticated user to have role admin", errs[0]["message"])

	data, errs := env.exec(t, admin, createTuneMutation, vars)
	require.Empty(t, errs)
	tune := data["createTune"].(map[string]any)
	assert.Equal(t, "Kenia", tune["title"])
	assert.Equal(t, "https://www.youtube.com/watch?v=8PYXOwwfW2o", tune["url"])
	assert.EqualValues(t, 0, tune["voteCount"])
	assert.NotEmpty(t, tune["id"])
}

func TestCreateTune_InvalidURL(t *testing.T) {
	env := newTestEnv(t)
	vars := map[string]any{"input": map[string]any{"artist": "A", "title": "T", "url": "nope"}}

	data, errs := env.exec(t, admin, createTuneMutation, vars)
	require.NotEmpty(t, errs)
	assert.Nil(t, data["createTune"])
}

const voteMutation = `mutation($input: TuneVoteInput!) {
  voteOnTune(input: $input) {
    tune { score voteCount }
    vote { direction comment createdAt }
  }
}`

func TestVoteOnTune(t *testing.T) {
	env := newTestEnv(t)
	tunes := seed(t, env)
	id := tunes[1].ID.String()

	_, errs := env.exec(t, nil, voteMutation, map[string]any{"input": map[string]any{"tuneID": id, "direction": "UPVOTE"}})
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))

	data, errs := env.exec(t, voter, voteMutation, map[string]any{"input": map[string]any{"tuneID": id, "direction": "UPVOTE", "comment": "yes"}})
	require.Empty(t, errs)
	payload := data["voteOnTune"].(map[string]any)
	assert.EqualValues(t, 1, payload["tune"].(map[string]any)["score"])
	assert.Equal(t, "UPVOTE", payload["vote"].(map[string]any)["direction"])
	assert.Equal(t, "yes", payload["vote"].(map[string]any)["comment"])

	data, errs = env.exec(t, voter, voteMutation, map[string]any{"input": map[string]any{"tuneID": id, "direction": "DOWNVOTE"}})
	require.Empty(t, errs)
	payload = data["voteOnTune"].(map[string]any)
	assert.EqualValues(t, 0, payload["tune"].(map[string]any)["score"])
	assert.EqualValues(t, 2, payload["tune"].(map[string]any)["voteCount"])
	assert.Equal(t, "DOWNVOTE", payload["vote"].(map[string]any)["direction"])

	_, errs = env.exec(t, voter, voteMutation, map[string]any{"input": map[string]any{"tuneID": "c0ffee00-0000-4000-8000-000000000000", "direction": "UPVOTE"}})
	require.Len(t, errs, 1)
	assert.Equal(t, CodeNotFound, errorCode(errs[0]))
}

const (
	signUpMutation = `mutation($input: SignUpInput!) { signUp(input: $input) }`
	logInMutation  = `mutation($input: LogInInput!) { logIn(input: $input) }`
)

func TestSignUpAndLogIn(t *testing.T) {
	env := newTestEnv(t)
	input := map[string]any{"email": "john@smith.org", "firstName": "John", "lastName": "Smith", "password": "secret"}

	data, errs := env.exec(t, nil, signUpMutation, map[string]any{"input": input})
	require.Empty(t, errs)
	claims, err := env.Users.Tokens.Parse(data["signUp"].(string))
	require.NoError(t, err)
	assert.Equal(t, "john@smith.org", claims.Email)

	_, errs = env.exec(t, nil, signUpMutation, map[string]any{"input": input})
	require.Len(t, errs, 1)
	assert.Equal(t, CodeConflict, errorCode(errs[0]))

	data, errs = env.exec(t, nil, logInMutation, map[string]any{"input": map[string]any{"email": "john@smith.org", "password": "secret"}})
	require.Empty(t, errs)
	assert.NotEmpty(t, data["logIn"])

	data, errs = env.exec(t, nil, logInMutation, map[string]any{"input": map[string]any{"email": "john@smith.org", "password": "wrong"}})
	require.Empty(t, errs)
	assert.Nil(t, data["logIn"])

	_, errs = env.exec(t, nil, logInMutation, map[string]any{"input": map[string]any{"email": "not-an-email", "password": "x"}})
	require.NotEmpty(t, errs)
}

func TestUserRolesVisibility(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Users.SignUpWithRoles(context.Background(), service.SignUpInput{
		Email: "boss@toptunez.dev", FirstName: "Boss", LastName: "Person", Password: "secret",
	}, []string{models.RoleAdmin, models.RoleManager})
	require.NoError(t, err)

	const q = `{ user(email: "boss@toptunez.dev") { firstName roles } }`

	data, errs := env.exec(t, admin, q, nil)
	require.Empty(t, errs)
	assert.Equal(t, []any{"ADMIN", "MANAGER"}, data["user"].(map[string]any)["roles"])

	data, errs = env.exec(t, voter, q, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeForbidden, errorCode(errs[0]))
	assert.Nil(t, data["user"])

	data, errs = env.exec(t, nil, `{ user(email: "nobody@toptunez.dev") { firstName } }`, nil)
	require.Empty(t, errs)
	assert.Nil(t, data["user"])
}

func TestToggleMFA(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Users.SignUp(context.Background(), service.SignUpInput{
		Email: "john@smith.org", FirstName: "John", LastName: "Smith", Password: "secret",
	})
	require.NoError(t, err)

	const m = `mutation($enabled: Boolean!) { toggleMFA(enabled: $enabled) { enabled url } }`

	_, errs := env.exec(t, nil, m, map[string]any{"enabled": true})
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs[0]))

	data, errs := env.exec(t, voter, m, map[string]any{"enabled": true})
	require.Empty(t, errs)
	payload := data["toggleMFA"].(map[string]any)
	assert.Equal(t, true, payload["enabled"])
	assert.True(t, strings.HasPrefix(payload["url"].(string), "data:image/png;base64,"))

	data, errs = env.exec(t, voter, m, map[string]any{"enabled": false})
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"enabled": false, "url": nil}, data["toggleMFA"])
}

func TestDepthLimit(t *testing.T) {
	env := newTestEnv(t)
	deep := "{ allTunes { votes { comment } } }"
	_, errs := env.exec(t, nil, deep, nil)
	assert.Empty(t, errs)

	q := "{ __schema { types { fields { type { ofType { ofType { ofType { ofType { ofType { ofType { name } } } } } } } } } } }"
	_, errs = env.exec(t, nil, q, nil)
	assert.NotEmpty(t, errs)
}
