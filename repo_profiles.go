package authstate

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the persistence surface for profile rows.
type Profiles interface {
	repository.Repository[*Profile]

	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Profile, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, update ProfileUpdate) (*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles     = (*profiles)(nil)
	_ ProfileStore = (*profiles)(nil)
)

// NewProfilesRepository builds the bun-backed Profiles store.
func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (r *profiles) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return r.GetProfileTx(ctx, r.db, id)
}

func (r *profiles) GetProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return record.EnsureRole(), nil
}

func (r *profiles) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Profile, error) {
	return r.UpdateProfileTx(ctx, r.db, id, update)
}

func (r *profiles) UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, update ProfileUpdate) (*Profile, error) {
	update = update.Normalize()

	q := tx.NewUpdate().
		Model((*Profile)(nil)).
		Where("?TableAlias.id = ?", id)

	if update.FirstName != nil {
		q = q.Set("first_name = ?", *update.FirstName)
	}
	if update.LastName != nil {
		q = q.Set("last_name = ?", *update.LastName)
	}
	if update.Role != nil {
		q = q.Set("role = ?", *update.Role)
	}
	if update.Avatar != nil {
		q = q.Set("avatar_url = ?", *update.Avatar)
	}
	if update.Phone != nil {
		q = q.Set("phone = ?", *update.Phone)
	}
	if update.Bio != nil {
		q = q.Set("bio = ?", *update.Bio)
	}

	q = q.Set("updated_at = ?", time.Now())

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrProfileNotFound
	}

	return r.GetProfileTx(ctx, tx, id)
}
