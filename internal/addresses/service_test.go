package addresses

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"avenue/internal/apperr"
	"avenue/internal/models"
)

// fakeRepository mirrors the transactional semantics of the Mongo store.
type fakeRepository struct {
	items []*models.Address
}

func (f *fakeRepository) List(_ context.Context, user primitive.ObjectID) ([]models.Address, error) {
	out := []models.Address{}
	for _, a := range f.items {
		if a.User == user {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeRepository) Count(_ context.Context, user primitive.ObjectID) (int64, error) {
	var n int64
	for _, a := range f.items {
		if a.User == user {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepository) clear(user, except primitive.ObjectID) {
	for _, a := range f.items {
		if a.User == user && a.ID != except {
			a.IsDefault = false
		}
	}
}

func (f *fakeRepository) Insert(_ context.Context, address *models.Address, makeDefault bool) error {
	address.ID = primitive.NewObjectID()
	address.IsDefault = makeDefault
	if makeDefault {
		f.clear(address.User, primitive.NilObjectID)
	}
	f.items = append(f.items, address)
	return nil
}

func (f *fakeRepository) SetDefault(_ context.Context, user, id primitive.ObjectID) (*models.Address, error) {
	for _, a := range f.items {
		if a.ID == id && a.User == user {
			f.clear(user, id)
			a.IsDefault = true
			return a, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeRepository) Delete(_ context.Context, user, id primitive.ObjectID) (*models.Address, error) {
	for i, a := range f.items {
		if a.ID != id || a.User != user {
			continue
		}
		f.items = append(f.items[:i], f.items[i+1:]...)
		if a.IsDefault {
			var newest *models.Address
			for _, rest := range f.items {
				if rest.User == user && (newest == nil || rest.CreatedAt.After(newest.CreatedAt)) {
					newest = rest
				}
			}
			if newest != nil {
				newest.IsDefault = true
			}
		}
		return a, nil
	}
	return nil, mongo.ErrNoDocuments
}

type fakeResolver struct {
	err error
}

func (f fakeResolver) ResolvePath(context.Context, primitive.ObjectID, primitive.ObjectID, primitive.ObjectID) (*models.City, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.City{}, nil
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService(t *testing.T, repo *fakeRepository, resolver fakeResolver) Service {
	t.Helper()
	c := &clock{t: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)}
	svc, err := NewService(repo, resolver, c.now)
	require.NoError(t, err)
	return svc
}

func validInput() Input {
	return Input{
		RecipientName: "Wanjiru Kamau",
		Phone:         "+254700000000",
		Country:       primitive.NewObjectID().Hex(),
		County:        primitive.NewObjectID().Hex(),
		City:          primitive.NewObjectID().Hex(),
		StreetAddress: "Moi Avenue 12",
	}
}

func defaults(t *testing.T, svc Service, user primitive.ObjectID) []primitive.ObjectID {
	t.Helper()
	list, err := svc.List(context.Background(), user)
	require.NoError(t, err)
	var ids []primitive.ObjectID
	for _, a := range list {
		if a.IsDefault {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, fakeResolver{})
	user := primitive.NewObjectID()

	first, err := svc.Create(context.Background(), user, validInput())
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Create(context.Background(), user, validInput())
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	assert.Equal(t, []primitive.ObjectID{first.ID}, defaults(t, svc, user))
}

func TestCreateWithDefaultFlagMovesDefault(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, fakeResolver{})
	user := primitive.NewObjectID()

	_, err := svc.Create(context.Background(), user, validInput())
	require.NoError(t, err)

	input := validInput()
	input.IsDefault = true
	second, err := svc.Create(context.Background(), user, input)
	require.NoError(t, err)

	assert.Equal(t, []primitive.ObjectID{second.ID}, defaults(t, svc, user))
}

func TestSetDefaultKeepsSingleDefault(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, fakeResolver{})
	user := primitive.NewObjectID()
	ctx := context.Background()

	var created []*models.Address
	for i := 0; i < 3; i++ {
		a, err := svc.Create(ctx, user, validInput())
		require.NoError(t, err)
		created = append(created, a)
	}

	for _, target := range []*models.Address{created[2], created[1], created[1], created[0]} {
		updated, err := svc.SetDefault(ctx, user, target.ID.Hex())
		require.NoError(t, err)
		assert.True(t, updated.IsDefault)
		assert.Equal(t, []primitive.ObjectID{target.ID}, defaults(t, svc, user))
	}
}

func TestSetDefaultOtherUsersAddressIsNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, fakeResolver{})
	owner := primitive.NewObjectID()
	ctx := context.Background()

	a, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = svc.SetDefault(ctx, primitive.NewObjectID(), a.ID.Hex())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.SetDefault(ctx, owner, "not-hex")
	assert.Equal(t, apperr.KindInvalidReference, apperr.KindOf(err))
}

func TestListPutsDefaultFirstThenNewest(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, fakeResolver{})
	user := primitive.NewObjectID()
	ctx := context.Background()

	first, _ := svc.Create(ctx, user, validInput())
	second, _ := svc.Create(ctx, user, validInput())
	third, _ := svc.Create(ctx, user, validInput())

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, third.ID, list[1].ID)
	assert.Equal(t, second.ID, list[2].ID)
}

func TestDeleteDefaultPromotesNewest(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, fakeResolver{})
	user := primitive.NewObjectID()
	ctx := context.Background()

	first, _ := svc.Create(ctx, user, validInput())
	_, _ = svc.Create(ctx, user, validInput())
	third, _ := svc.Create(ctx, user, validInput())

	require.NoError(t, svc.Delete(ctx, user, first.ID.Hex()))
	assert.Equal(t, []primitive.ObjectID{third.ID}, defaults(t, svc, user))

	err := svc.Delete(ctx, user, first.ID.Hex())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, fakeResolver{})
	user := primitive.NewObjectID()

	blank := validInput()
	blank.RecipientName = "  "
	_, err := svc.Create(context.Background(), user, blank)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	badRef := validInput()
	badRef.City = "x"
	_, err = svc.Create(context.Background(), user, badRef)
	assert.Equal(t, apperr.KindInvalidReference, apperr.KindOf(err))
}

func TestCreateRejectsInconsistentGeography(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, fakeResolver{err: apperr.Validation("city does not belong to county")})

	_, err := svc.Create(context.Background(), primitive.NewObjectID(), validInput())
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, repo.items)
}
