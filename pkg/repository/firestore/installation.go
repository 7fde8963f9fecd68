package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ponderbot/ponder/pkg/domain/interfaces"
	"github.com/ponderbot/ponder/pkg/domain/model"
	"github.com/ponderbot/ponder/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (r *Firestore) PutInstallation(ctx context.Context, inst *model.Installation) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid installation")
	}

	docRef := r.client.Collection(installationsCollection).Doc(inst.TeamID.String())

	// Run as a transaction so installed_at is preserved across re-installs
	// without a read-modify-write race between concurrent callbacks.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now()
		cp := *inst
		cp.UpdatedAt = now
		cp.InstalledAt = now

		doc, err := tx.Get(docRef)
		if err == nil {
			var existing model.Installation
			if err := doc.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal existing installation")
			}
			cp.InstalledAt = existing.InstalledAt
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get existing installation")
		}

		return tx.Set(docRef, &cp)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put installation to firestore", goerr.V("team_id", inst.TeamID))
	}

	return nil
}

func (r *Firestore) GetInstallation(ctx context.Context, teamID types.TeamID) (*model.Installation, error) {
	if err := teamID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid team ID")
	}

	doc, err := r.client.Collection(installationsCollection).Doc(teamID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrInstallationNotFound, "no installation", goerr.V("team_id", teamID))
		}
		return nil, goerr.Wrap(err, "failed to get installation from firestore", goerr.V("team_id", teamID))
	}

	var inst model.Installation
	if err := doc.DataTo(&inst); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal installation", goerr.V("team_id", teamID))
	}

	return &inst, nil
}

func (r *Firestore) DeleteInstallation(ctx context.Context, teamID types.TeamID) error {
	if err := teamID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}

	// Delete is idempotent on Firestore: deleting a missing doc succeeds.
	if _, err := r.client.Collection(installationsCollection).Doc(teamID.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete installation from firestore", goerr.V("team_id", teamID))
	}
	return nil
}

func (r *Firestore) ListInstallations(ctx context.Context) ([]*model.Installation, error) {
	iter := r.client.Collection(installationsCollection).Documents(ctx)
	defer iter.Stop()

	var installations []*model.Installation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate installations")
		}

		var inst model.Installation
		if err := doc.DataTo(&inst); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal installation", goerr.V("doc_id", doc.Ref.ID))
		}
		installations = append(installations, &inst)
	}

	return installations, nil
}
