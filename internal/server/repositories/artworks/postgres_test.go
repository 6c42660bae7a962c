package artworks

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verarta/artledger/internal/ledgererr"
	"github.com/verarta/artledger/internal/server/models"
)

func TestCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	a := &models.Artwork{
		ArtworkID:        1,
		Owner:            "alice",
		TitleCipher:      "dGl0bGU=",
		CreatorPublicKey: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		CreatedAt:        1750248000,
	}

	mock.ExpectExec("INSERT INTO artworks").
		WithArgs(a.ArtworkID, a.Owner, a.TitleCipher, a.DescriptionCipher, a.MetadataCipher, a.CreatorPublicKey, a.CreatedAt, a.FileCount).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), a)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"artwork_id", "owner", "title_cipher", "description_cipher",
			"metadata_cipher", "creator_public_key", "created_at", "file_count",
		}).AddRow(1, "alice", "dGl0bGU=", "", "", "key", 1750248000, 2)

		mock.ExpectQuery("SELECT (.+) FROM artworks").
			WithArgs(uint64(1)).
			WillReturnRows(rows)

		a, err := repo.Get(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "alice", a.Owner)
		assert.Equal(t, uint32(2), a.FileCount)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM artworks").
			WithArgs(uint64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"artwork_id"}))

		_, err := repo.Get(context.Background(), 99)
		assert.ErrorIs(t, err, ledgererr.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecOneSemantics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)
	ctx := context.Background()

	t.Run("one row updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE artworks SET owner").
			WithArgs(uint64(1), "bob").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetOwner(ctx, 1, "bob"))
	})

	t.Run("zero rows means not found", func(t *testing.T) {
		mock.ExpectExec("UPDATE artworks SET owner").
			WithArgs(uint64(99), "bob").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SetOwner(ctx, 99, "bob"), ledgererr.ErrNotFound)
	})

	t.Run("db error wrapped", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM artworks").
			WithArgs(uint64(1)).
			WillReturnError(errors.New("boom"))

		err := repo.Delete(ctx, 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ledgererr.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileCountFloor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec(`UPDATE artworks SET file_count = GREATEST\(file_count - 1, 0\)`).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DecrementFileCount(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
