// internal/workers/incident/notify-supervisors/resolver.go
package notifysupervisors

import (
	"context"
	"fmt"

	"incident-notifier/internal/models"
)

// Directory is the read side of the supervisor directory.
type Directory interface {
	ListSupervisors(ctx context.Context) ([]models.Recipient, error)
}

// Resolver loads the current supervisors.
type Resolver struct {
	directory Directory
}

func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns every supervisor with its token as stored, valid or not.
// Entries whose role is not supervisor are dropped.
func (r *Resolver) Resolve(ctx context.Context) ([]models.Recipient, error) {
	all, err := r.directory.ListSupervisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryRead, err)
	}

	supervisors := all[:0:0]
	for _, rc := range all {
		if rc.Role == models.RoleSupervisor {
			supervisors = append(supervisors, rc)
		}
	}
	return supervisors, nil
}

// SelectTargets keeps the recipients whose token can be addressed. The returned
// recipients and tokens are index-aligned.
func SelectTargets(recipients []models.Recipient) ([]models.Recipient, []string) {
	var (
		targeted []models.Recipient
		tokens   []string
	)
	for _, rc := range recipients {
		if rc.HasValidToken() {
			targeted = append(targeted, rc)
			tokens = append(tokens, rc.Token)
		}
	}
	return targeted, tokens
}
