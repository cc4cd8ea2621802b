package tag

import (
	"context"
	"testing"

	"foodgram-backend/domain"
	"foodgram-backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTagRepository struct {
	byID map[uuid.UUID]*entities.Tag
}

func newFakeTagRepository() *fakeTagRepository {
	return &fakeTagRepository{byID: make(map[uuid.UUID]*entities.Tag)}
}

func (f *fakeTagRepository) CreateTag(_ context.Context, tag *entities.Tag) error {
	for _, existing := range f.byID {
		if existing.Name == tag.Name || existing.Color == tag.Color || existing.Slug == tag.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	f.byID[tag.ID] = tag
	return nil
}

func (f *fakeTagRepository) GetTagByID(_ context.Context, id string) (*entities.Tag, error) {
	tagID, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	tag, ok := f.byID[tagID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (f *fakeTagRepository) GetTags(_ context.Context) ([]*entities.Tag, error) {
	var out []*entities.Tag
	for _, tag := range f.byID {
		out = append(out, tag)
	}
	return out, nil
}

func (f *fakeTagRepository) GetTagsBySlugs(_ context.Context, slugs []string) ([]*entities.Tag, error) {
	var out []*entities.Tag
	for _, tag := range f.byID {
		for _, slug := range slugs {
			if tag.Slug == slug {
				out = append(out, tag)
			}
		}
	}
	return out, nil
}

func TestCreateTagAndGet(t *testing.T) {
	service := NewTagService(newFakeTagRepository())
	ctx := context.Background()

	created, err := service.CreateTag(ctx, domain.CreateTagRequest{
		Name:  "breakfast",
		Color: "#E26C2D",
		Slug:  "breakfast",
	})
	require.NoError(t, err)

	got, err := service.GetTagByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "breakfast", got.Name)
	assert.Equal(t, "#E26C2D", got.Color)
}

func TestCreateTagUniqueFields(t *testing.T) {
	service := NewTagService(newFakeTagRepository())
	ctx := context.Background()

	_, err := service.CreateTag(ctx, domain.CreateTagRequest{
		Name:  "dinner",
		Color: "#49B64E",
		Slug:  "dinner",
	})
	require.NoError(t, err)

	// same color on a different name still collides
	_, err = service.CreateTag(ctx, domain.CreateTagRequest{
		Name:  "supper",
		Color: "#49B64E",
		Slug:  "supper",
	})
	assert.ErrorIs(t, err, domain.ErrTagAlreadyExists)
}

func TestGetTagNotFound(t *testing.T) {
	service := NewTagService(newFakeTagRepository())

	_, err := service.GetTagByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}
