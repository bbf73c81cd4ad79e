package repository

import "fmt"

// Resolver answers membership questions for the notification dispatcher
// without pulling in the community usecase. It is read-only over the
// community and membership tables.
type Resolver struct {
	communities CommunityRepository
	memberships MembershipRepository
}

// NewResolver creates a resolver over the given repositories.
func NewResolver(communities CommunityRepository, memberships MembershipRepository) *Resolver {
	return &Resolver{communities: communities, memberships: memberships}
}

func (r *Resolver) MemberIDs(communityID string) ([]string, error) {
	return r.memberships.MemberIDs(communityID)
}

func (r *Resolver) IsMember(communityID, userID string) (bool, error) {
	return r.memberships.IsMember(communityID, userID)
}

func (r *Resolver) CommunityName(communityID string) (string, error) {
	community, err := r.communities.FindByID(communityID)
	if err != nil {
		return "", err
	}
	if community == nil {
		return "", fmt.Errorf("community %s not found", communityID)
	}
	return community.Name, nil
}
