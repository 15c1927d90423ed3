// Package graph resolves community memberships and follow relationships. The
// Authorize gate implements the visibility predicate applied by the post find
// and feed reads: a post is visible to a viewer if and only if the viewer is
// a member of the posts community.
package graph

import (
	"context"
	"time"

	"github.com/256dpi/xo"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/models"
)

// ErrUnauthorized is returned if a viewer lacks the required membership.
var ErrUnauthorized = xo.BF("unauthorized")

// Communities will return the ids of all communities the specified user is a
// member of.
func Communities(ctx context.Context, store *coal.Store, user coal.ID) ([]coal.ID, error) {
	// trace
	ctx, span := xo.Trace(ctx, "graph/Communities")
	defer span.End()

	// find communities
	var communities []*models.Community
	err := store.M(&models.Community{}).FindAll(ctx, &communities, bson.M{
		"Members": user,
	}, nil, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	// collect ids
	ids := make([]coal.ID, 0, len(communities))
	for _, community := range communities {
		ids = append(ids, community.ID())
	}

	return ids, nil
}

// SharedCommunities will return the ids of all communities that both users
// are members of.
func SharedCommunities(ctx context.Context, store *coal.Store, user1, user2 coal.ID) ([]coal.ID, error) {
	// trace
	ctx, span := xo.Trace(ctx, "graph/SharedCommunities")
	defer span.End()

	// find communities with both members
	var communities []*models.Community
	err := store.M(&models.Community{}).FindAll(ctx, &communities, bson.M{
		"Members": bson.M{
			"$all": bson.A{user1, user2},
		},
	}, nil, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	// collect ids
	ids := make([]coal.ID, 0, len(communities))
	for _, community := range communities {
		ids = append(ids, community.ID())
	}

	return ids, nil
}

// IsMember will return whether the specified user is a member of the
// specified community. A missing community yields false.
func IsMember(ctx context.Context, store *coal.Store, user, community coal.ID) (bool, error) {
	// trace
	ctx, span := xo.Trace(ctx, "graph/IsMember")
	defer span.End()

	// find community with member
	found, err := store.M(&models.Community{}).FindFirst(ctx, nil, bson.M{
		"_id":     community,
		"Members": user,
	}, nil, 0, false)
	if err != nil {
		return false, err
	}

	return found, nil
}

// Authorize will return ErrUnauthorized unless the specified viewer is a
// member of the specified community.
func Authorize(ctx context.Context, store *coal.Store, viewer, community coal.ID) error {
	// check membership
	ok, err := IsMember(ctx, store, viewer, community)
	if err != nil {
		return err
	} else if !ok {
		return ErrUnauthorized.Wrap()
	}

	return nil
}

// Following will return the ids of all users the specified user follows.
func Following(ctx context.Context, store *coal.Store, user coal.ID) ([]coal.ID, error) {
	// trace
	ctx, span := xo.Trace(ctx, "graph/Following")
	defer span.End()

	// find relationships
	var relationships []*models.Relationship
	err := store.M(&models.Relationship{}).FindAll(ctx, &relationships, bson.M{
		"Follower": user,
	}, nil, 0, 0, false, coal.NoTransaction)
	if err != nil {
		return nil, err
	}

	// collect ids
	ids := make([]coal.ID, 0, len(relationships))
	for _, relationship := range relationships {
		ids = append(ids, relationship.Following)
	}

	return ids, nil
}

// Follows will return whether a follow edge from follower to following
// exists.
func Follows(ctx context.Context, store *coal.Store, follower, following coal.ID) (bool, error) {
	// trace
	ctx, span := xo.Trace(ctx, "graph/Follows")
	defer span.End()

	// find relationship
	found, err := store.M(&models.Relationship{}).FindFirst(ctx, nil, bson.M{
		"Follower":  follower,
		"Following": following,
	}, nil, 0, false)
	if err != nil {
		return false, err
	}

	return found, nil
}

// Follow will create a follow edge from follower to following if it does not
// exist yet. It will return whether the edge has been created.
func Follow(ctx context.Context, store *coal.Store, follower, following coal.ID) (bool, error) {
	// trace
	ctx, span := xo.Trace(ctx, "graph/Follow")
	defer span.End()

	// validate edge
	relationship := &models.Relationship{
		Base:      coal.B(),
		Follower:  follower,
		Following: following,
		Created:   time.Now(),
	}
	err := relationship.Validate()
	if err != nil {
		return false, err
	}

	// insert edge if missing
	inserted, err := store.M(&models.Relationship{}).InsertIfMissing(ctx, bson.M{
		"Follower":  follower,
		"Following": following,
	}, relationship, false)
	if err != nil {
		return false, err
	}

	return inserted, nil
}

// Unfollow will remove the follow edge from follower to following. It will
// return whether an edge has been removed.
func Unfollow(ctx context.Context, store *coal.Store, follower, following coal.ID) (bool, error) {
	// trace
	ctx, span := xo.Trace(ctx, "graph/Unfollow")
	defer span.End()

	// delete edge
	deleted, err := store.M(&models.Relationship{}).DeleteFirst(ctx, nil, bson.M{
		"Follower":  follower,
		"Following": following,
	}, nil)
	if err != nil {
		return false, err
	}

	return deleted, nil
}
