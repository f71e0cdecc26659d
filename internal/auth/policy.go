package auth

import (
	"fmt"
	"strings"

	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/service"
)

type Operation string

const (
	OpListTunes  Operation = "allTunes"
	OpCreateTune Operation = "createTune"
	OpVoteOnTune Operation = "voteOnTune"
	OpSignUp     Operation = "signUp"
	OpLogIn      Operation = "logIn"
	OpToggleMFA  Operation = "toggleMFA"
	OpUser       Operation = "user"
	OpUserRoles  Operation = "roles"
)

type Requirement struct {
	Authenticated bool
	Roles         []string
}

// Policies is consulted by both the REST and the GraphQL front. Operations
// missing from the table are public.
var Policies = map[Operation]Requirement{
	OpCreateTune: {Authenticated: true, Roles: []string{models.RoleAdmin}},
	OpVoteOnTune: {Authenticated: true},
	OpToggleMFA:  {Authenticated: true},
	OpUserRoles:  {Authenticated: true, Roles: []string{models.RoleAdmin}},
}

type ForbiddenError struct {
	Operation Operation
	Missing   []string
}

func (e *ForbiddenError) Error() string {
	return "Missing required roles on the user: " + strings.Join(e.Missing, ", ")
}

func (e *ForbiddenError) Unwrap() error {
	return service.ErrForbidden
}

func Authorize(id *Identity, op Operation) error {
	req, ok := Policies[op]
	if !ok {
		return nil
	}
	if req.Authenticated && id == nil {
		return fmt.Errorf("%s requires authentication: %w", op, service.ErrUnauthenticated)
	}

	var missing []string
	for _, r := range req.Roles {
		if !id.HasRole(r) {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &ForbiddenError{Operation: op, Missing: missing}
	}
	return nil
}
