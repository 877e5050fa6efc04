// Package firestore records signed-in users in a Firestore collection.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/utafrali/designstudio/internal/domain"
	apperrors "github.com/utafrali/designstudio/pkg/errors"
)

// DefaultCollection holds one document per account, keyed by uid.
const DefaultCollection = "users"

// userDocument is the stored shape of a users/<uid> document.
type userDocument struct {
	Email       string    `firestore:"email"`
	ClientID    string    `firestore:"clientId"`
	Role        string    `firestore:"role"`
	IsPermanent bool      `firestore:"isPermanent"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time `firestore:"updatedAt,serverTimestamp"`
}

// UserDirectory implements identity.Directory on Firestore.
type UserDirectory struct {
	client     *firestore.Client
	collection string
}

// NewUserDirectory creates a directory writing to collection.
func NewUserDirectory(client *firestore.Client, collection string) *UserDirectory {
	if collection == "" {
		collection = DefaultCollection
	}
	return &UserDirectory{client: client, collection: collection}
}

// EnsureUser creates the user document on first sight and repairs the
// stored client key when it differs from the derived one.
func (d *UserDirectory) EnsureUser(ctx context.Context, id *domain.Identity) error {
	if id == nil || id.UID == "" {
		return apperrors.InvalidInput("identity uid is required")
	}
	ref := d.client.Collection(d.collection).Doc(id.UID)

	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) != codes.NotFound {
			return fmt.Errorf("get user %s: %w", id.UID, err)
		}
		doc := userDocument{
			Email:       id.Email,
			ClientID:    id.Key,
			Role:        "user",
			IsPermanent: true,
		}
		if _, err := ref.Set(ctx, doc); err != nil {
			return fmt.Errorf("create user %s: %w", id.UID, err)
		}
		return nil
	}

	var existing userDocument
	if err := snap.DataTo(&existing); err != nil {
		return fmt.Errorf("decode user %s: %w", id.UID, err)
	}
	if existing.ClientID == id.Key && existing.IsPermanent {
		return nil
	}

	_, err = ref.Set(ctx, map[string]interface{}{
		"clientId":    id.Key,
		"isPermanent": true,
		"updatedAt":   firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id.UID, err)
	}
	return nil
}
